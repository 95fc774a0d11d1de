package models

import "time"

// User is an authenticated operator: a clerk recording readings or an
// accountant working the day-close. Authentication itself lives in the
// retail back office; this service consumes signed identity and keeps a
// local record for attribution.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // clerk, accountant or admin
	StoreID   int       `json:"store_id"`
	IsActive  bool      `json:"is_active"` // false = paused/suspended
	CreatedAt time.Time `json:"created_at"`
}

// CanClose reports whether this user may post day-closes. Clerks
// record readings; only accountants and admins touch the ledger.
func (u *User) CanClose() bool {
	return u.Role == "accountant" || u.Role == "admin"
}
