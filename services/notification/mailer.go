package notification

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mailjet/mailjet-apiv3-go"
)

// Receipt is the content of a payment confirmation email.
type Receipt struct {
	ToEmail     string
	ToName      string
	ShortRef    string
	TourTitle   string
	StartDate   *time.Time
	Amount      int64
	AmountPaid  int64
	TotalAmount int64
}

// Mailer sends transactional email.
type Mailer interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

// MailjetMailer sends through the Mailjet v3.1 send API.
type MailjetMailer struct {
	client    *mailjet.Client
	fromEmail string
	fromName  string
}

func NewMailjetMailer(apiKey, secretKey, fromEmail, fromName string) *MailjetMailer {
	return &MailjetMailer{
		client:    mailjet.NewMailjetClient(apiKey, secretKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendReceipt emails the receipt. The Mailjet client does not take a context.
func (m *MailjetMailer) SendReceipt(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, text, htmlBody := RenderReceipt(r)
	messages := mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From: &mailjet.RecipientV31{Email: m.fromEmail, Name: m.fromName},
		To: &mailjet.RecipientsV31{
			mailjet.RecipientV31{Email: r.ToEmail, Name: r.ToName},
		},
		Subject:  subject,
		TextPart: text,
		HTMLPart: htmlBody,
		CustomID: "receipt-" + r.ShortRef,
	}}}
	if _, err := m.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("mailjet send to %s failed: %w", r.ToEmail, err)
	}
	return nil
}

// RenderReceipt returns the subject, plain text and HTML body of a receipt.
func RenderReceipt(r Receipt) (subject, text, htmlBody string) {
	when := "date to be confirmed"
	if r.StartDate != nil {
		when = r.StartDate.Format("Monday 2 January 2006")
	}
	balance := r.TotalAmount - r.AmountPaid
	if balance < 0 {
		balance = 0
	}

	subject = fmt.Sprintf("Payment received for booking %s", r.ShortRef)

	lines := []string{
		fmt.Sprintf("Hi %s,", greetingName(r.ToName)),
		"",
		fmt.Sprintf("We have received your payment of £%d for %s on %s.", r.Amount, r.TourTitle, when),
		fmt.Sprintf("Booking reference: %s", r.ShortRef),
		fmt.Sprintf("Paid so far: £%d of £%d.", r.AmountPaid, r.TotalAmount),
	}
	if balance > 0 {
		lines = append(lines, fmt.Sprintf("Remaining balance: £%d. You can pay it from your account page at any time before the tour.", balance))
	} else {
		lines = append(lines, "Your booking is now fully paid.")
	}
	text = strings.Join(lines, "\n")

	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return subject, text, b.String()
}

func greetingName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
