// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an identity keyed by phone number. Salt and Verifier come from
// the client's passcode derivation; the passcode itself never reaches the
// server.
type User struct {
	ID          string
	PhoneNumber string
	Salt        []byte
	Verifier    []byte
	Disabled    bool
	CreatedAt   time.Time
}
