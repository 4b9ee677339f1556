package models

import "time"

// OrderFinalizedMessage is published to the notifications exchange when a
// customer finalizes an order. It carries the full archived record so
// subscribers never need to read the archive.
type OrderFinalizedMessage struct {
	Order       Order     `json:"order"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// EmailPayload is the rendered email handed to the mail collaborator
type EmailPayload struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	BodyText   string `json:"body_text"`
	Attachment []byte `json:"attachment,omitempty"`
	Filename   string `json:"filename,omitempty"`
}

// TextPayload is the rendered message handed to the messaging collaborator
type TextPayload struct {
	To       string `json:"to"`
	BodyText string `json:"body_text"`
}
