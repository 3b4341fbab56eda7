package timing

import "time"

// Window is a daily [Start, End) hour range used for peak weighting.
type Window struct {
	Start int
	End   int
}

// Preference holds a user's scheduling configuration. One row per user,
// created lazily with defaults on first evaluation and kept until a full
// user reset.
type Preference struct {
	UserID            int64
	ActiveStartHour   int
	ActiveStartMinute int
	ActiveEndHour     int
	ActiveEndMinute   int
	MinGapHours       int
	MoodBoostEnabled  bool
	PeakMorning       Window
	PeakAfternoon     Window
	PeakEvening       Window
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Default preference values: active 08:00–22:00, 1h minimum gap between
// sends, mood boost on, peaks 08–10 / 14–16 / 18–20.
func Default(userID int64) *Preference {
	return &Preference{
		UserID:           userID,
		ActiveStartHour:  8,
		ActiveEndHour:    22,
		MinGapHours:      1,
		MoodBoostEnabled: true,
		PeakMorning:      Window{Start: 8, End: 10},
		PeakAfternoon:    Window{Start: 14, End: 16},
		PeakEvening:      Window{Start: 18, End: 20},
	}
}

// PeakWindows returns the configured peak windows in daily order.
func (p *Preference) PeakWindows() []Window {
	return []Window{p.PeakMorning, p.PeakAfternoon, p.PeakEvening}
}

// MinGap returns the minimum gap as a duration.
func (p *Preference) MinGap() time.Duration {
	return time.Duration(p.MinGapHours) * time.Hour
}
