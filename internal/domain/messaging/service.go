package messaging

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// MaxAttachmentBytes is the default cap on the decoded size of a message
// attachment. Deployments override it through config.
const MaxAttachmentBytes = 5 << 20

// Pusher delivers an event to an online identity. Satisfied by
// realtime.Tracker. The returned bool reports delivery; senders treat a
// false as "receiver offline", never as a failure.
type Pusher interface {
	Push(identity, event string, data interface{}) bool
}

type Service struct {
	repo          Repository
	pusher        Pusher
	maxAttachment int64
	now           func() time.Time
}

func NewService(repo Repository, pusher Pusher, maxAttachment int64) *Service {
	if maxAttachment <= 0 {
		maxAttachment = MaxAttachmentBytes
	}
	return &Service{repo: repo, pusher: pusher, maxAttachment: maxAttachment, now: time.Now}
}

// SendRequest carries one outgoing message.
type SendRequest struct {
	Sender         string  `json:"sender"`
	Receiver       string  `json:"receiver"`
	Content        string  `json:"content"`
	AttachmentData *string `json:"attachmentData"`
	AttachmentName *string `json:"attachmentName"`
}

// Send persists the message and pushes it to the receiver when online.
// The message is durable whether or not the push lands.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Message, error) {
	if req.Sender == "" || req.Receiver == "" || req.Content == "" {
		return nil, fmt.Errorf("%w: sender, receiver and content are required", ErrValidation)
	}

	m := &Message{
		Sender:         req.Sender,
		Receiver:       req.Receiver,
		Content:        req.Content,
		AttachmentType: AttachmentNone,
		Timestamp:      s.now(),
	}
	if req.AttachmentData != nil && *req.AttachmentData != "" {
		if int64(base64.StdEncoding.DecodedLen(len(*req.AttachmentData))) > s.maxAttachment {
			return nil, ErrAttachmentTooLarge
		}
		m.HasAttachment = true
		m.AttachmentType = AttachmentPDF
		m.AttachmentData = req.AttachmentData
		m.AttachmentName = req.AttachmentName
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}

	// Best effort; an offline receiver reads it from history later.
	s.pusher.Push(m.Receiver, "receive-message", m)
	return m, nil
}

// History returns the full conversation between the two identities,
// oldest first.
func (s *Service) History(ctx context.Context, a, b string) ([]Message, error) {
	if a == "" || b == "" {
		return nil, fmt.Errorf("%w: sender and receiver are required", ErrValidation)
	}
	return s.repo.History(ctx, a, b)
}

// MarkRead flips every unread sender→receiver message to read.
func (s *Service) MarkRead(ctx context.Context, sender, receiver string) error {
	if sender == "" || receiver == "" {
		return fmt.Errorf("%w: sender and receiver are required", ErrValidation)
	}
	_, err := s.repo.MarkRead(ctx, sender, receiver)
	return err
}
