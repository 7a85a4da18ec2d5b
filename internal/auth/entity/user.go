package entity

import "time"

// User represents an account row in the `users` table.
// PasswordHash is never the plaintext and never leaves the service layer.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PasswordAlgo string    `db:"password_algo" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
