package services

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"projectdesk/internal/models"
)

type EmailService interface {
	SendOverdueDigest(to string, account models.BillingAccount, items []models.GenericTask) error
}

// mailSender is the part of *gomail.Dialer the service uses.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer mailSender
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendOverdueDigest(to string, account models.BillingAccount, items []models.GenericTask) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%s: %d overdue assignments", account.Name, len(items)))
	m.SetBody("text/html", overdueDigestBody(account, items))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}
	return nil
}

func overdueDigestBody(account models.BillingAccount, items []models.GenericTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Overdue assignments in %s</h3>\n<ul>\n", html.EscapeString(account.Name))
	for _, it := range items {
		due := ""
		if it.DueDate != nil {
			due = it.DueDate.Format("2006-01-02")
		}
		assignee := it.AssigneeFullName
		if assignee == "" {
			assignee = it.Assignee
		}
		fmt.Fprintf(&b, "<li>[%s] %s-%d %s (due %s, %s)</li>\n",
			it.Type, html.EscapeString(it.ProjectShortName), it.TypeID,
			html.EscapeString(it.Name), due, html.EscapeString(assignee))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
