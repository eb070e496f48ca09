// Package intent turns free-text customer messages into scheduling intents
// using keyword families and simple numeric patterns.
package intent

// Action is the kind of request a message expresses.
type Action string

const (
	ActionBook        Action = "book"
	ActionCancel      Action = "cancel"
	ActionCheckStatus Action = "check_status"
	ActionInfoRequest Action = "info_request"
	ActionUnknown     Action = "unknown"
)

// Intent is the result of classifying one message. Service, Date and Time are
// only filled for ActionBook. ClientName is left empty for the caller to resolve.
type Intent struct {
	Action     Action `json:"action"`
	Service    string `json:"service,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}
