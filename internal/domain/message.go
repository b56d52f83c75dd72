package domain

// Subscriber message types.
const (
	// TypeInitialTokens carries the full store snapshot, sent once on subscribe.
	TypeInitialTokens = "INITIAL_TOKENS"
	// TypeNewToken carries a single freshly accepted record.
	TypeNewToken = "NEW_TOKEN"
)

// Envelope is the wire format for all subscriber-bound messages.
type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"` // send time, Unix ms
}
