package domain

import "time"

type Patient struct {
	ID        string
	UserID    string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
