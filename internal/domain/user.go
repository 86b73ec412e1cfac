package domain

import "time"

// User is the domain entity for an account. Email doubles as the
// digest recipient address.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
