package confirmation

import (
	"context"
	"testing"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/infrastructure/logger"
)

type stubMailbox struct {
	messages []output.MessageSummary
	searches int
}

func (s *stubMailbox) Search(ctx context.Context, q output.MailQuery) ([]output.MessageSummary, error) {
	s.searches++
	return s.messages, nil
}

func (s *stubMailbox) Send(ctx context.Context, mail output.OutgoingMail) error { return nil }

func TestPoll_ConfirmsOnKeywordMatch(t *testing.T) {
	submittedAt := time.Now().Add(-time.Minute)
	mailbox := &stubMailbox{messages: []output.MessageSummary{
		{
			ID:         "1",
			Subject:    "Your Privacy Request has been received",
			From:       "privacy@broker.example",
			ReceivedAt: submittedAt.Add(30 * time.Second),
		},
	}}

	p := NewPollerWithTiming(mailbox, logger.NewNop(), time.Second, 10*time.Millisecond)
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, submittedAt, nil)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !result.Confirmed {
		t.Fatal("expected confirmation")
	}
	if result.Subject != "Your Privacy Request has been received" {
		t.Errorf("subject = %q", result.Subject)
	}
	if mailbox.searches != 1 {
		t.Errorf("first match should end the loop, searched %d times", mailbox.searches)
	}
}

func TestPoll_IgnoresMessagesBeforeSubmission(t *testing.T) {
	submittedAt := time.Now()
	mailbox := &stubMailbox{messages: []output.MessageSummary{
		{
			ID:         "old",
			Subject:    "Privacy request confirmation",
			ReceivedAt: submittedAt.Add(-time.Hour),
		},
	}}

	p := NewPollerWithTiming(mailbox, logger.NewNop(), 50*time.Millisecond, 10*time.Millisecond)
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, submittedAt, nil)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if result.Confirmed {
		t.Error("message older than the submission must not confirm")
	}
}

func TestPoll_PicksPostSubmissionMessageOnly(t *testing.T) {
	submittedAt := time.Now()
	mailbox := &stubMailbox{messages: []output.MessageSummary{
		{
			ID:         "before",
			Subject:    "Confirmation of request",
			ReceivedAt: submittedAt.Add(-time.Minute),
		},
		{
			ID:         "after",
			Subject:    "Your request has been received",
			ReceivedAt: submittedAt.Add(time.Minute),
		},
	}}

	p := NewPollerWithTiming(mailbox, logger.NewNop(), time.Second, 10*time.Millisecond)
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, submittedAt, nil)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !result.Confirmed {
		t.Fatal("post-submission message should confirm")
	}
	if result.Subject != "Your request has been received" {
		t.Errorf("confirmed on %q, want the post-submission message", result.Subject)
	}
}

func TestPoll_IgnoresUnrelatedSubjects(t *testing.T) {
	submittedAt := time.Now().Add(-time.Minute)
	mailbox := &stubMailbox{messages: []output.MessageSummary{
		{ID: "1", Subject: "Weekly newsletter", ReceivedAt: time.Now()},
	}}

	p := NewPollerWithTiming(mailbox, logger.NewNop(), 50*time.Millisecond, 10*time.Millisecond)
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, submittedAt, nil)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if result.Confirmed {
		t.Error("unrelated subject must not confirm")
	}
}

func TestPoll_BrokerKeywordOverride(t *testing.T) {
	submittedAt := time.Now().Add(-time.Minute)
	mailbox := &stubMailbox{messages: []output.MessageSummary{
		{ID: "1", Subject: "Opt-out completed", ReceivedAt: time.Now()},
	}}

	p := NewPollerWithTiming(mailbox, logger.NewNop(), time.Second, 10*time.Millisecond)
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, submittedAt,
		[]string{"opt-out completed"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !result.Confirmed {
		t.Error("override keyword should confirm")
	}
}

func TestPoll_TimesOut(t *testing.T) {
	mailbox := &stubMailbox{}
	wait := 60 * time.Millisecond
	p := NewPollerWithTiming(mailbox, logger.NewNop(), wait, 10*time.Millisecond)

	start := time.Now()
	result, err := p.Poll(context.Background(), "jane@example.com", []string{"broker.example"}, time.Now(), nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if result.Confirmed {
		t.Error("empty mailbox must not confirm")
	}
	if elapsed < wait {
		t.Errorf("returned before the wait budget: %v < %v", elapsed, wait)
	}
	if mailbox.searches < 2 {
		t.Errorf("expected repeated searches, got %d", mailbox.searches)
	}
}
