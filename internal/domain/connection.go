package domain

type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionClosed       ConnectionState = "closed"
)

// Live reports the liveness flag for a state: only an open channel is live.
func (s ConnectionState) Live() bool {
	return s == ConnectionConnected
}
