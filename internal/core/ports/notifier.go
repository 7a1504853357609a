package ports

import "context"

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
	// Kind labels the message for logs and metrics (e.g. "password_reset").
	Kind string
}

// Notifier accepts a message for delivery. A nil error confirms dispatch,
// not delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// MailSender performs the actual delivery of one message.
type MailSender interface {
	Send(ctx context.Context, msg Message) error
}

// ResetThrottle suppresses repeated reset mails for the same account.
type ResetThrottle interface {
	// Allow reports whether a reset mail may be sent now and, when it may,
	// records the send so that later calls within the window return false.
	Allow(ctx context.Context, userID int64) (bool, error)
	// Release gives back a window claimed by Allow when the mail could not
	// be dispatched.
	Release(ctx context.Context, userID int64) error
}
