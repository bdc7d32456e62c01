// Package daemon provides the client and protocol types for talking to the
// on-device speech engine over a Unix socket using NDJSON.
package daemon

// Commands understood by the speech engine.
const (
	CmdStatus    = "status"
	CmdStart     = "start"
	CmdStop      = "stop"
	CmdSubscribe = "subscribe"
)

// Events streamed to subscribed clients.
const (
	EventPartial = "partial"
	EventSegment = "segment"
	EventStatus  = "status"
	EventError   = "error"
	EventLevel   = "level"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd     string   `json:"cmd"`
	Locale  string   `json:"locale,omitempty"`
	Interim *bool    `json:"interim,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool     `json:"ok"`
	SessionID string   `json:"sessionId,omitempty"`
	Recording *bool    `json:"recording,omitempty"`
	Locales   []string `json:"locales,omitempty"`
	Error     string   `json:"error,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event          string   `json:"event"`
	Text           string   `json:"text,omitempty"`
	Mic            *float32 `json:"mic,omitempty"`
	SessionID      string   `json:"sessionId,omitempty"`
	SequenceNumber *int     `json:"sequenceNumber,omitempty"`
	Message        string   `json:"message,omitempty"`
	Transient      *bool    `json:"transient,omitempty"`
	Recording      *bool    `json:"recording,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }
