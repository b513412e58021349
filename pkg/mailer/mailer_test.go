package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/lumberhaus/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderConfirmation(t *testing.T) {
	subject, body, err := Render(Message{
		Kind: KindOrderConfirmation,
		Data: map[string]interface{}{"orderId": 42, "customerName": "Ada", "total": "$1,200.00"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Your Lumberhaus order #42 is confirmed", subject)
	assert.Contains(t, body, "Thank you for your order, Ada")
	assert.Contains(t, body, "$1,200.00")
}

func TestRenderEscapesData(t *testing.T) {
	_, body, err := Render(Message{
		Kind: KindContact,
		Data: map[string]interface{}{"name": "Eve", "email": "eve@example.com", "message": "<script>alert(1)</script>"},
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRenderUnknownKind(t *testing.T) {
	_, _, err := Render(Message{Kind: "newsletter"})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, ValidKind("newsletter"))
	assert.True(t, ValidKind(KindOrderShipped))
}

func TestSMTPSender(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "shop@lumberhaus.test"}

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s := &smtpSender{cfg: cfg, sendMail: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}}

	err := s.Send(context.Background(), "ada@example.com", Message{
		Kind: KindOrderShipped,
		Data: map[string]interface{}{"orderId": 7, "trackingNumber": "1Z999"},
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your Lumberhaus order #7 has shipped")
	assert.Contains(t, string(gotMsg), "1Z999")
}

func TestSMTPSenderSurfacesFailure(t *testing.T) {
	calls := 0
	s := &smtpSender{cfg: config.SMTPConfig{Host: "h", Port: "25"}, sendMail: func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("421 service not available")
	}}

	err := s.Send(context.Background(), "ada@example.com", Message{Kind: KindOrderConfirmation, Data: map[string]interface{}{"orderId": 1}})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSenderRejectsBadAddress(t *testing.T) {
	err := NewLogSender().Send(context.Background(), "not-an-address", Message{Kind: KindContact})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	s := NewSender(config.SMTPConfig{})
	_, ok := s.(logSender)
	assert.True(t, ok)
}
