package mood

import (
	"database/sql"
	"time"
)

// Entry is a single mood check-in on a 1 (worst) to 5 (best) scale.
type Entry struct {
	ID        int64
	UserID    int64
	Score     int
	Note      sql.NullString
	CreatedAt time.Time
}

const (
	MinScore = 1
	MaxScore = 5
)

// BoostFactor maps the latest mood score to a message-frequency
// multiplier. Low moods raise the target frequency; neutral or good
// moods leave it unchanged.
func BoostFactor(score int) float64 {
	switch {
	case score <= 2:
		return 2.0
	case score <= 4:
		return 1.5
	default:
		return 1.0
	}
}
