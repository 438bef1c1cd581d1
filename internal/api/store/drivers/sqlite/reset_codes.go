package sqlite

import (
	"context"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
)

type resetCodesRepo struct {
	db dbtx
}

func (r *resetCodesRepo) CreateResetCode(ctx context.Context, c domain.PasswordResetCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_codes (id, user_id, code_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.CodeHash, c.ExpiresAt.UTC(), time.Now().UTC(),
	)
	return mapConstraint(err)
}

func (r *resetCodesRepo) GetResetCodeByHash(ctx context.Context, hash string) (domain.PasswordResetCode, error) {
	var c domain.PasswordResetCode
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, code_hash, expires_at, created_at
		FROM password_reset_codes WHERE code_hash = ?`, hash,
	).Scan(&c.ID, &c.UserID, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.PasswordResetCode{}, mapNotFound(err)
	}
	return c, nil
}

// DeleteResetCode removes one code row. The rows-affected check is what
// makes concurrent consumption yield exactly one winner: the loser's
// delete matches nothing and gets ErrNotFound.
func (r *resetCodesRepo) DeleteResetCode(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM password_reset_codes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *resetCodesRepo) DeleteResetCodesForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM password_reset_codes WHERE user_id = ?`, userID)
	return err
}

func (r *resetCodesRepo) DeleteExpiredResetCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM password_reset_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
