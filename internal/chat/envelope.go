package chat

import "strings"

// Envelope is the sole output contract of the chat core: a human-readable
// reply plus a structured payload.
type Envelope struct {
	Reply string                 `json:"reply"`
	Data  map[string]interface{} `json:"data"`
}

// NewEnvelope is the single normalization funnel every handler goes through.
// A blank reply is replaced by a placeholder and a nil payload by an empty
// map, so a malformed response can never leave the core.
func NewEnvelope(reply string, data map[string]interface{}) Envelope {
	if strings.TrimSpace(reply) == "" {
		reply = "..."
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	return Envelope{Reply: reply, Data: data}
}
