package user

import (
	"database/sql"
	"time"
)

// User represents a bot subscriber. The primary key doubles as the
// Telegram chat ID, so no separate mapping table is needed.
type User struct {
	ID               int64
	Username         sql.NullString
	FirstName        string
	Language         string // "de" or "en"
	MessageFrequency int    // target motivational messages per day
	IsActive         bool
	CreatedAt        time.Time
	LastActive       time.Time
}

const (
	DefaultLanguage  = "de"
	DefaultFrequency = 2
)

// New returns a user with signup defaults applied.
func New(id int64, username, firstName string) *User {
	u := &User{
		ID:               id,
		FirstName:        firstName,
		Language:         DefaultLanguage,
		MessageFrequency: DefaultFrequency,
		IsActive:         true,
	}
	if username != "" {
		u.Username = sql.NullString{String: username, Valid: true}
	}
	return u
}
