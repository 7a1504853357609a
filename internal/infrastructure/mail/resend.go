// Package mail holds the ports.MailSender implementations.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/resend/resend-go/v2"

	"github.com/incuna/user-management/internal/core/ports"
)

// ResendSender delivers plain-text mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend: missing API key")
	}
	if from == "" {
		return nil, errors.New("resend: missing from address")
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from}, nil
}

// newResendSenderWithClient is used by tests to point at a fake API.
func newResendSenderWithClient(client *resend.Client, from string) *ResendSender {
	return &ResendSender{client: client, from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg ports.Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{recipient(msg)},
		Subject: msg.Subject,
		Text:    msg.Body,
		Tags:    []resend.Tag{{Name: "kind", Value: msg.Kind}},
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

func recipient(msg ports.Message) string {
	if msg.Name == "" {
		return msg.To
	}
	return (&mail.Address{Name: msg.Name, Address: msg.To}).String()
}
