package realtime

// ConnectionState is the externally observable channel state.
type ConnectionState int32

const (
	// StateDisconnected means no connection exists and none is being made.
	StateDisconnected ConnectionState = iota
	// StateConnecting means a dial or reconnect attempt is in progress.
	StateConnecting
	// StateConnected means the handshake completed and events can flow.
	StateConnected
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
