// Package notify delivers account lifecycle notifications (welcome,
// password reset link, password change confirmation) out of band.
// Delivery is fire-and-forget: a failed notification never fails the
// request that triggered it.
package notify

import (
	"context"

	"github.com/dathealth/medsched/internal/api/domain"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To       string
	Subject  string
	Body     string
	Template string
}

// Dispatcher sends lifecycle notifications to users.
type Dispatcher interface {
	// Welcome greets a freshly registered account.
	Welcome(ctx context.Context, user domain.User)

	// PasswordReset delivers the reset link carrying the raw code.
	PasswordReset(ctx context.Context, user domain.User, link string)

	// PasswordUpdated confirms a successful password change.
	PasswordUpdated(ctx context.Context, user domain.User)
}
