package engagement

import (
	"database/sql"
	"time"
)

// MessageType categorizes a logged send.
type MessageType string

const (
	TypeMotivational MessageType = "motivational"
	TypeMoodReminder MessageType = "mood_reminder"
	TypeBroadcast    MessageType = "broadcast"
)

// Record is one entry in the append-only send history. ScheduledAt is
// when the engine planned the send, SentAt when the dispatch attempt
// happened. Failed dispatches are recorded with Delivered=false so the
// attempt remains visible without counting toward the daily quota.
type Record struct {
	ID          int64
	UserID      int64
	ScheduledAt time.Time
	SentAt      time.Time
	Type        MessageType
	ContentID   sql.NullInt64 // Reference to the content item, if any
	Delivered   bool
	CreatedAt   time.Time
}
