package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"realty_backend/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.sent = append(c.sent, msg)
	return "msg-1", nil
}

func TestSendInquiryNotification(t *testing.T) {
	sender := &captureSender{}
	n, err := NewNotifier(sender, "Listings <noreply@example.com>", "agent@example.com", logging.Discard())
	require.NoError(t, err)

	err = n.SendInquiryNotification(context.Background(), InquiryNotificationData{
		Reference:     "ref-1",
		PropertyTitle: "Test Villa",
		Name:          "Ana",
		Email:         "ana@example.com",
		Message:       "Is it <b>available</b>?",
		ReceivedAt:    time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"agent@example.com"}, msg.To)
	assert.Equal(t, "New inquiry from Ana about Test Villa", msg.Subject)
	assert.Contains(t, msg.HTML, "ana@example.com")
	assert.Contains(t, msg.HTML, "&lt;b&gt;available&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "02 Jan 2026")
}

func TestNotifierErrors(t *testing.T) {
	_, err := NewNotifier(nil, "a", "b", logging.Discard())
	assert.Error(t, err)
	_, err = NewNotifier(&captureSender{}, "a", "", logging.Discard())
	assert.Error(t, err)

	n, err := NewNotifier(&captureSender{err: errors.New("down")}, "a", "b", logging.Discard())
	require.NoError(t, err)
	assert.Error(t, n.SendInquiryNotification(context.Background(), InquiryNotificationData{Name: "x"}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.SendInquiryNotification(context.Background(), InquiryNotificationData{}))
	nilNotifier.NotifyInquiryAsync(InquiryNotificationData{})
}
