package service

import (
	"context"
	"errors"

	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/pkg/httpx"
)

// PrincipalResolver maps a verified token subject (the account email)
// to the principal the request gate installs on the context. The gate
// treats ErrPrincipalNotFound like a bad token, so a token for a since
// deleted account stops working immediately.
type PrincipalResolver struct {
	Store store.Store
}

func (r *PrincipalResolver) ResolvePrincipal(ctx context.Context, subject string) (httpx.Principal, error) {
	user, err := r.Store.Users().GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Principal{}, httpx.ErrPrincipalNotFound
		}
		return httpx.Principal{}, err
	}

	return httpx.Principal{
		Subject:     user.Email,
		Permissions: user.Roles,
		Enabled:     user.Enabled(),
	}, nil
}
