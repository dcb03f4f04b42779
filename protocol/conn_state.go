package protocol

const (
	ConnStateDisconnected ConnState = 0
	ConnStateChallenging  ConnState = 1
	ConnStateConnecting   ConnState = 2
	ConnStateConnected    ConnState = 3
	ConnStatePrimed       ConnState = 4
	ConnStateActive       ConnState = 5
)

// ConnState is the lifecycle state of one client connection.
// ConnStateDisconnected is the sole reset state and is reachable
// from every other state.
type ConnState int

func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateChallenging:
		return "challenging"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateConnected:
		return "connected"
	case ConnStatePrimed:
		return "primed"
	case ConnStateActive:
		return "active"
	default:
		return "unknown"
	}
}
