package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/ports"
)

// LogSender writes messages to the log instead of sending them. Meant for
// local development; bodies carry live tokens.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg ports.Message) error {
	s.log.Info().
		Str("kind", msg.Kind).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email sent (dev mode)")
	return nil
}
