package domain

import "time"

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
