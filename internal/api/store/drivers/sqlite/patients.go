package sqlite

import (
	"context"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
)

type patientsRepo struct {
	db dbtx
}

func (r *patientsRepo) CreatePatient(ctx context.Context, p domain.Patient) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (id, user_id, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Phone, now, now,
	)
	return mapConstraint(err)
}

func (r *patientsRepo) GetPatientByUserID(ctx context.Context, userID string) (domain.Patient, error) {
	var p domain.Patient
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, phone, created_at, updated_at
		FROM patients WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Patient{}, mapNotFound(err)
	}
	return p, nil
}

func (r *patientsRepo) UpdatePatient(ctx context.Context, p domain.Patient) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients SET phone = ?, updated_at = ? WHERE id = ?`,
		p.Phone, time.Now().UTC(), p.ID,
	)
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
