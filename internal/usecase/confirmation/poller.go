package confirmation

import (
	"context"
	"strings"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

// DefaultKeywords is the confirmation vocabulary observed across broker
// privacy portals. Brokers can override it per config.
var DefaultKeywords = []string{
	"confirmation",
	"privacy request",
	"request needs attention",
	"request id",
	"privacy portal",
	"request received",
	"request has been received",
	"submission received",
}

const (
	DefaultWait     = 300 * time.Second
	DefaultInterval = 10 * time.Second
)

// Poller repeatedly searches the mailbox for a broker confirmation until one
// turns up or the wait budget runs out. A timeout is not an error: the
// submission still counts, the result just says unconfirmed.
type Poller struct {
	mailbox  output.MailboxPort
	logger   output.LoggerPort
	wait     time.Duration
	interval time.Duration
}

func NewPoller(mailbox output.MailboxPort, log output.LoggerPort) *Poller {
	return &Poller{
		mailbox:  mailbox,
		logger:   log,
		wait:     DefaultWait,
		interval: DefaultInterval,
	}
}

// NewPollerWithTiming exists for callers with different budgets (and tests).
func NewPollerWithTiming(mailbox output.MailboxPort, log output.LoggerPort, wait, interval time.Duration) *Poller {
	return &Poller{mailbox: mailbox, logger: log, wait: wait, interval: interval}
}

// Poll searches for a message from one of the broker's domains, addressed to
// userEmail, received strictly after submittedAt, whose subject contains a
// confirmation keyword. First match wins and ends the loop immediately.
func (p *Poller) Poll(ctx context.Context, userEmail string, domains []string, submittedAt time.Time, keywords []string) (*entity.ConfirmationResult, error) {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	query := output.MailQuery{
		FromDomains: domains,
		Recipient:   userEmail,
		NewerThan:   24 * time.Hour,
	}

	start := time.Now()
	deadline := start.Add(p.wait)
	p.logger.Info("Waiting for confirmation email", "domains", strings.Join(domains, ","),
		"waitSeconds", int(p.wait.Seconds()))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		messages, err := p.mailbox.Search(ctx, query)
		if err != nil {
			// Transient mailbox trouble should not end the poll early.
			p.logger.Warn("Mailbox search failed, will retry", "error", err)
		}

		for _, msg := range messages {
			if !msg.ReceivedAt.After(submittedAt) {
				continue
			}
			if subject, ok := matchSubject(msg.Subject, keywords); ok {
				elapsed := time.Since(start)
				p.logger.Info("Confirmation email found", "subject", subject,
					"from", msg.From, "elapsedSeconds", int(elapsed.Seconds()))
				return &entity.ConfirmationResult{
					Confirmed: true,
					Subject:   subject,
					Elapsed:   elapsed,
				}, nil
			}
		}

		if time.Now().After(deadline) {
			p.logger.Warn("No confirmation email within the time limit")
			return &entity.ConfirmationResult{Confirmed: false, Elapsed: time.Since(start)}, nil
		}

		select {
		case <-ctx.Done():
			return &entity.ConfirmationResult{Confirmed: false, Elapsed: time.Since(start)}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func matchSubject(subject string, keywords []string) (string, bool) {
	lower := strings.ToLower(subject)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return subject, true
		}
	}
	return "", false
}
