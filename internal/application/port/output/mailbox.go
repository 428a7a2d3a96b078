package output

import (
	"context"
	"time"
)

// MailQuery is a provider-agnostic mailbox search: senders from any of the
// given domains, delivered to Recipient, within the coarse recency bound.
type MailQuery struct {
	FromDomains []string
	Recipient   string
	NewerThan   time.Duration
}

// MessageSummary is what a search returns; ReceivedAt is the provider's
// internal timestamp.
type MessageSummary struct {
	ID         string
	Subject    string
	From       string
	ReceivedAt time.Time
}

type OutgoingMail struct {
	To      string
	Subject string
	Body    string
}

type MailboxPort interface {
	Search(ctx context.Context, q MailQuery) ([]MessageSummary, error)
	Send(ctx context.Context, mail OutgoingMail) error
}
