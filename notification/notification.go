package notification

import "context"

// Message is a templated email ready for delivery
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Sender delivers a Message. The reconciliation engine treats delivery as
// fire-and-forget: errors are logged by the caller and never escalated.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
