package domain

import "time"

// User represents a registered carpool member.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Vehicle      string
	Seats        int // 0 when the user does not offer rides
	CreatedAt    time.Time
}
