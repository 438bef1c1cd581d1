package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
)

type doctorsRepo struct {
	db dbtx
}

const selectDoctor = `
SELECT id, user_id, first_name, last_name, license_number, specialization, created_at, updated_at
FROM doctors`

func (r *doctorsRepo) CreateDoctor(ctx context.Context, d domain.Doctor) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO doctors (id, user_id, first_name, last_name, license_number, specialization, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.FirstName, d.LastName, d.LicenseNumber, d.Specialization, now, now,
	)
	return mapConstraint(err)
}

func (r *doctorsRepo) GetDoctorByID(ctx context.Context, id string) (domain.Doctor, error) {
	return scanDoctor(r.db.QueryRowContext(ctx, selectDoctor+` WHERE id = ?`, id))
}

func (r *doctorsRepo) GetDoctorByUserID(ctx context.Context, userID string) (domain.Doctor, error) {
	return scanDoctor(r.db.QueryRowContext(ctx, selectDoctor+` WHERE user_id = ?`, userID))
}

func (r *doctorsRepo) ListDoctors(ctx context.Context, specialization string) ([]domain.Doctor, error) {
	query := selectDoctor + ` ORDER BY last_name, first_name`
	args := []any{}
	if specialization != "" {
		query = selectDoctor + ` WHERE specialization = ? ORDER BY last_name, first_name`
		args = append(args, specialization)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []domain.Doctor
	for rows.Next() {
		var d domain.Doctor
		err := rows.Scan(
			&d.ID, &d.UserID, &d.FirstName, &d.LastName,
			&d.LicenseNumber, &d.Specialization, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorsRepo) UpdateDoctor(ctx context.Context, d domain.Doctor) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doctors
		SET first_name = ?, last_name = ?, specialization = ?, updated_at = ?
		WHERE id = ?`,
		d.FirstName, d.LastName, d.Specialization, time.Now().UTC(), d.ID,
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

func scanDoctor(row *sql.Row) (domain.Doctor, error) {
	var d domain.Doctor
	err := row.Scan(
		&d.ID, &d.UserID, &d.FirstName, &d.LastName,
		&d.LicenseNumber, &d.Specialization, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Doctor{}, mapNotFound(err)
	}
	return d, nil
}
