package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Message is one outgoing HTML email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendSender sends through the Resend API.
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (r *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend send failed: %w", err)
	}
	return sent.Id, nil
}

type InquiryNotificationData struct {
	Reference     string
	PropertyTitle string
	PropertyURL   string
	Name          string
	Email         string
	Phone         string
	Subject       string
	Message       string
	Source        string
	ReceivedAt    time.Time
}

// Notifier renders the embedded templates and hands them to a Sender.
// A nil *Notifier is valid and sends nothing.
type Notifier struct {
	sender    Sender
	from      string
	to        string
	templates *template.Template
	log       *logrus.Logger
}

func NewNotifier(sender Sender, from, to string, log *logrus.Logger) (*Notifier, error) {
	if sender == nil {
		return nil, errors.New("email sender is required")
	}
	if to == "" {
		return nil, errors.New("notification recipient is required")
	}
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}
	return &Notifier{sender: sender, from: from, to: to, templates: templates, log: log}, nil
}

func (n *Notifier) sendTemplateEmail(ctx context.Context, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	id, err := n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{n.to},
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		return err
	}
	n.log.WithFields(logrus.Fields{"template": templateName, "message_id": id}).Debug("Email sent")
	return nil
}

func (n *Notifier) SendInquiryNotification(ctx context.Context, data InquiryNotificationData) error {
	if n == nil {
		return nil
	}
	subject := "New inquiry from " + data.Name
	if data.PropertyTitle != "" {
		subject += " about " + data.PropertyTitle
	}
	return n.sendTemplateEmail(ctx, subject, "inquiry_notification.html", data)
}

// NotifyInquiryAsync sends in the background with its own timeout. Failures
// are logged only.
func (n *Notifier) NotifyInquiryAsync(data InquiryNotificationData) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.SendInquiryNotification(ctx, data); err != nil {
			n.log.WithError(err).WithField("reference", data.Reference).Warn("Failed to send inquiry notification")
		}
	}()
}

type StatsDigestData struct {
	Period          string
	Since           time.Time
	TotalProperties int64
	Published       int64
	TotalViews      int64
	NewInquiries    int64
	OpenInquiries   int64
	Events          int64
	UniqueSessions  int64
	TopProperty     string
	TopViews        int64
}

func (n *Notifier) SendStatsDigest(ctx context.Context, data StatsDigestData) error {
	if n == nil {
		return nil
	}
	return n.sendTemplateEmail(ctx, "Your "+data.Period+" listing report", "stats_digest.html", data)
}
