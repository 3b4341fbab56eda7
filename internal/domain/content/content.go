package content

import (
	"database/sql"
	"time"
)

// Item is one motivational message text. MinMood/MaxMood bound the mood
// scores (1–5) the item is appropriate for, so low-mood users get
// supportive rather than high-energy content.
type Item struct {
	ID        int64
	Body      string
	Language  string
	Category  sql.NullString
	MinMood   int
	MaxMood   int
	CreatedAt time.Time
}
