package goal

import (
	"database/sql"
	"time"
)

// Category groups goals for template lookup and display.
type Category string

const (
	CategoryHealth   Category = "health"
	CategoryCareer   Category = "career"
	CategoryPersonal Category = "personal"
	CategoryLearning Category = "learning"
)

// Goal is a user-managed objective. Completed goals are retained for
// stats rather than deleted.
type Goal struct {
	ID          int64
	UserID      int64
	Title       string
	Category    Category
	IsDone      bool
	CreatedAt   time.Time
	CompletedAt sql.NullTime
}
