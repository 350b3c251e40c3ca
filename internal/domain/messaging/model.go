// Package messaging stores direct messages between patients and doctors
// and pushes them to the receiver's live connection when one exists.
// Delivery is best effort; the durable record is what History serves.
package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Attachment types. PDF is the only payload the portal accepts.
const (
	AttachmentNone = "none"
	AttachmentPDF  = "pdf"
)

// Message is one direct message. AttachmentData carries a base64-encoded
// PDF; HasAttachment is true exactly when AttachmentData is set, and
// AttachmentType is "pdf" in that case and "none" otherwise.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Sender         string    `db:"sender" json:"sender"`
	Receiver       string    `db:"receiver" json:"receiver"`
	Content        string    `db:"content" json:"content"`
	HasAttachment  bool      `db:"has_attachment" json:"hasAttachment"`
	AttachmentType string    `db:"attachment_type" json:"attachmentType"`
	AttachmentData *string   `db:"attachment_data" json:"attachmentData,omitempty"`
	AttachmentName *string   `db:"attachment_name" json:"attachmentName,omitempty"`
	Read           bool      `db:"read" json:"read"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}
