package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"deletion-agent/internal/application/port/output"
)

var _ output.MailboxPort = (*Adapter)(nil)

// Adapter implements the mailbox port on the Gmail API. OAuth bootstrapping
// (the browser consent dance that produces token.json) happens outside this
// package; here we only consume stored credentials.
type Adapter struct {
	service *gmail.Service
	logger  output.LoggerPort
}

// NewAdapter builds a Gmail client from a client-secret file and a previously
// stored user token.
func NewAdapter(ctx context.Context, credentialsPath, tokenPath string, log output.LoggerPort) (*Adapter, error) {
	secret, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(secret, gmail.GmailReadonlyScope, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	tokenBytes, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token file (run the OAuth setup first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Adapter{service: service, logger: log}, nil
}

// buildQuery renders the provider-agnostic MailQuery as a Gmail search
// expression: (from:a.com OR from:b.com) to:user newer_than:1d.
func buildQuery(q output.MailQuery) string {
	froms := make([]string, 0, len(q.FromDomains))
	for _, d := range q.FromDomains {
		froms = append(froms, "from:"+d)
	}

	parts := []string{"(" + strings.Join(froms, " OR ") + ")"}
	if q.Recipient != "" {
		parts = append(parts, "to:"+q.Recipient)
	}
	if q.NewerThan > 0 {
		days := int(q.NewerThan.Hours() / 24)
		if days < 1 {
			days = 1
		}
		parts = append(parts, fmt.Sprintf("newer_than:%dd", days))
	}
	return strings.Join(parts, " ")
}

func (a *Adapter) Search(ctx context.Context, q output.MailQuery) ([]output.MessageSummary, error) {
	query := buildQuery(q)
	a.logger.Debug("Mailbox search", "query", query)

	list, err := a.service.Users.Messages.List("me").Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("mailbox search failed: %w", err)
	}

	summaries := make([]output.MessageSummary, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := a.service.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).Do()
		if err != nil {
			a.logger.Warn("Message fetch failed", "id", m.Id, "error", err)
			continue
		}

		summary := output.MessageSummary{
			ID:         m.Id,
			ReceivedAt: time.UnixMilli(msg.InternalDate),
		}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch strings.ToLower(h.Name) {
				case "subject":
					summary.Subject = h.Value
				case "from":
					summary.From = h.Value
				}
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (a *Adapter) Send(ctx context.Context, mail output.OutgoingMail) error {
	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		mail.To, mail.Subject, mail.Body)

	_, err := a.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	a.logger.Info("Deletion request email sent", "to", mail.To, "subject", mail.Subject)
	return nil
}
