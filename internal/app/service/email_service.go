package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
)

var ErrEmailSendFailed = errors.New("email could not be sent")

// EmailService sends typed transactional emails on behalf of the storefront.
type EmailService interface {
	Send(ctx context.Context, kind, to string, data map[string]interface{}) error
}

type emailService struct {
	sender mailer.Sender
}

func NewEmailService(sender mailer.Sender) EmailService {
	return &emailService{sender: sender}
}

func (s *emailService) Send(ctx context.Context, kind, to string, data map[string]interface{}) error {
	k := mailer.Kind(strings.TrimSpace(kind))
	if !mailer.ValidKind(k) {
		return invalid("type", apperrors.ValidationInvalidInput, fmt.Sprintf("unknown email type %q", kind))
	}
	to = strings.TrimSpace(to)
	if _, err := mail.ParseAddress(to); err != nil {
		return invalid("to", apperrors.ValidationInvalidFormat, "to is not a valid address")
	}

	if err := s.sender.Send(ctx, to, mailer.Message{Kind: k, Data: data}); err != nil {
		logger.Error("Email send failed", err, map[string]interface{}{
			"type": kind,
		})
		return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}
	return nil
}
