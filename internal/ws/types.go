package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady         = "ready"
	MsgPong          = "pong"
	MsgRecordUpdated = "record_updated"
)

type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
