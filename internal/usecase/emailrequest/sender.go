package emailrequest

import (
	"context"
	"fmt"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

// Sender handles brokers that accept deletion requests over email only. It
// composes a fixed polite request letter and hands it to the mailbox.
type Sender struct {
	mailbox output.MailboxPort
	logger  output.LoggerPort
}

func NewSender(mailbox output.MailboxPort, log output.LoggerPort) *Sender {
	return &Sender{mailbox: mailbox, logger: log}
}

// Send composes and sends the deletion request to the broker's privacy
// contact address.
func (s *Sender) Send(ctx context.Context, cfg *entity.BrokerConfig, profile *entity.UserProfile) error {
	fullName := fmt.Sprintf("%s %s", profile.FirstName, profile.LastName)
	mail := output.OutgoingMail{
		To:      cfg.PrivacyEmail,
		Subject: fmt.Sprintf("[Data Deletion Request] %s - %s", cfg.Name, fullName),
		Body:    requestBody(cfg.Name, profile),
	}

	s.logger.Info("Sending deletion request email", "broker", cfg.Name, "to", cfg.PrivacyEmail)
	if err := s.mailbox.Send(ctx, mail); err != nil {
		return &entity.SubmissionError{
			BrokerName: cfg.Name,
			Message:    fmt.Sprintf("failed to send deletion request email: %v", err),
			Suggestions: []string{
				"check the mailbox credentials and token",
				"verify the privacy_email address in the broker config",
			},
		}
	}
	s.logger.Info("Deletion request email sent", "broker", cfg.Name)
	return nil
}

func requestBody(brokerName string, profile *entity.UserProfile) string {
	return fmt.Sprintf(`Dear %s Data Privacy Team,

I am writing to request the deletion of my personal information from your database under my rights under various privacy laws including CCPA, GDPR, and other applicable data protection regulations.

My information that may be in your database:
- First Name: %s
- Last Name: %s
- Email: %s

Please confirm receipt of this request and provide information about the status of my data deletion request.

Thank you for your attention to this matter.

Best regards,
%s %s`,
		brokerName,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.FirstName,
		profile.LastName,
	)
}
