package protocol

const (
	ClcBad           ClientOp = 0
	ClcNop           ClientOp = 1
	ClcMove          ClientOp = 2
	ClcMoveNoDelta   ClientOp = 3
	ClcClientCommand ClientOp = 4
	ClcEOF           ClientOp = 5
)

// ClientOp is a client to server message type.
type ClientOp byte
