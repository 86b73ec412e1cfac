package domain

import "time"

// Profile holds per-user integration linkage. LineUserID, when set, is
// the join key that maps an inbound LINE sender to an account.
type Profile struct {
	ID         string
	LineUserID *string
	UpdatedAt  time.Time
}
