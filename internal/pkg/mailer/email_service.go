package mailer

import (
	"fmt"

	"clarity-cbt-be/internal/entity"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReviewRequest(toEmail, threadID string, draft entity.ExerciseDraft) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendReviewRequest notifies a clinician that an exercise passed both
// automated reviews and is waiting for sign-off.
func (s *emailService) SendReviewRequest(toEmail, threadID string, draft entity.ExerciseDraft) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Exercise ready for review: %s", draft.Title))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>Session <code>%s</code> has an exercise waiting for human review.</p>
			<h3>Instructions</h3>
			<p>%s</p>
			<h3>Content</h3>
			<pre style="white-space: pre-wrap; background: #f5f5f5; padding: 10px;">%s</pre>
		</div>
	`, draft.Title, threadID, draft.Instructions, draft.Content)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send review request to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Review request sent to %s\n", toEmail)
	return nil
}
