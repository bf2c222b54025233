package types

// Event is the notification record a module appends when a state change
// commits. Type names the action and Attributes carry its string-encoded
// payload.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
