package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dathealth/medsched/internal/api/domain"
)

// Sender delivers a rendered message to its recipient. Implementations
// wrap an SMTP relay or a provider API; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender "delivers" by logging the message. Used in development and
// as the default when no mail relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.Info("notification dispatched",
		slog.String("to", msg.To),
		slog.String("template", msg.Template),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// MailDispatcher renders the lifecycle templates and hands them to a
// Sender asynchronously.
type MailDispatcher struct {
	Sender Sender
	Logger *slog.Logger
}

func (d *MailDispatcher) Welcome(ctx context.Context, user domain.User) {
	d.dispatch(Message{
		To:       user.Email,
		Template: "welcome",
		Subject:  "Welcome to MedSched",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour MedSched account is ready. You can sign in with this email address.\n",
			user.Name,
		),
	})
}

func (d *MailDispatcher) PasswordReset(ctx context.Context, user domain.User, link string) {
	d.dispatch(Message{
		To:       user.Email,
		Template: "password-reset",
		Subject:  "Reset your MedSched password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse the link below to choose a new password. The link is valid for 5 hours and works once.\n\n%s\n\nIf you did not request this, you can ignore this message.\n",
			user.Name, link,
		),
	})
}

func (d *MailDispatcher) PasswordUpdated(ctx context.Context, user domain.User) {
	d.dispatch(Message{
		To:       user.Email,
		Template: "password-update-confirmation",
		Subject:  "Your MedSched password was changed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour password was just changed. If this wasn't you, reset it immediately.\n",
			user.Name,
		),
	})
}

// dispatch hands the message to the sender on its own goroutine with a
// fresh context, so notification delivery never blocks or cancels with
// the originating request.
func (d *MailDispatcher) dispatch(msg Message) {
	go func() {
		if err := d.Sender.Send(context.Background(), msg); err != nil {
			d.Logger.Error("notification delivery failed",
				slog.String("to", msg.To),
				slog.String("template", msg.Template),
				slog.Any("error", err),
			)
		}
	}()
}
