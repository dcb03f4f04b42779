package protocol

const (
	SvcBad           ServerOp = 0
	SvcNop           ServerOp = 1
	SvcGamestate     ServerOp = 2
	SvcConfigString  ServerOp = 3
	SvcBaseline      ServerOp = 4
	SvcServerCommand ServerOp = 5
	SvcDownload      ServerOp = 6
	SvcSnapshot      ServerOp = 7
	SvcEOF           ServerOp = 8
)

// ServerOp is a server to client message type.
type ServerOp byte
