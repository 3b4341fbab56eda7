package database

import (
	"context"
	"database/sql"
	"fmt"

	"motivator_bot/internal/domain/timing"
)

var ErrPreferenceNotFound = fmt.Errorf("timing preference not found")

type PostgresTimingRepository struct {
	db *sql.DB
}

func NewPostgresTimingRepository(db *sql.DB) *PostgresTimingRepository {
	return &PostgresTimingRepository{db: db}
}

const timingColumns = `user_id, active_start_hour, active_start_minute, active_end_hour, active_end_minute,
               min_gap_hours, mood_boost_enabled,
               peak_morning_start, peak_morning_end, peak_afternoon_start, peak_afternoon_end,
               peak_evening_start, peak_evening_end, created_at, updated_at`

func scanPreference(row *sql.Row) (*timing.Preference, error) {
	p := &timing.Preference{}
	err := row.Scan(
		&p.UserID, &p.ActiveStartHour, &p.ActiveStartMinute, &p.ActiveEndHour, &p.ActiveEndMinute,
		&p.MinGapHours, &p.MoodBoostEnabled,
		&p.PeakMorning.Start, &p.PeakMorning.End, &p.PeakAfternoon.Start, &p.PeakAfternoon.End,
		&p.PeakEvening.Start, &p.PeakEvening.End, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresTimingRepository) Get(ctx context.Context, userID int64) (*timing.Preference, error) {
	query := `SELECT ` + timingColumns + ` FROM timing_preferences WHERE user_id = $1`
	p, err := scanPreference(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("error getting timing preference: %w", err)
	}
	return p, nil
}

func (r *PostgresTimingRepository) Create(ctx context.Context, p *timing.Preference) error {
	query := `INSERT INTO timing_preferences (user_id, active_start_hour, active_start_minute,
               active_end_hour, active_end_minute, min_gap_hours, mood_boost_enabled,
               peak_morning_start, peak_morning_end, peak_afternoon_start, peak_afternoon_end,
               peak_evening_start, peak_evening_end)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
               ON CONFLICT (user_id) DO NOTHING
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.ActiveStartHour, p.ActiveStartMinute, p.ActiveEndHour, p.ActiveEndMinute,
		p.MinGapHours, p.MoodBoostEnabled,
		p.PeakMorning.Start, p.PeakMorning.End, p.PeakAfternoon.Start, p.PeakAfternoon.End,
		p.PeakEvening.Start, p.PeakEvening.End,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		// ON CONFLICT DO NOTHING yields no row when the preference already
		// exists; concurrent lazy creation is not an error.
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("error creating timing preference: %w", err)
	}
	return nil
}

func (r *PostgresTimingRepository) Update(ctx context.Context, p *timing.Preference) error {
	query := `UPDATE timing_preferences
               SET active_start_hour = $1, active_start_minute = $2, active_end_hour = $3, active_end_minute = $4,
                   min_gap_hours = $5, mood_boost_enabled = $6,
                   peak_morning_start = $7, peak_morning_end = $8,
                   peak_afternoon_start = $9, peak_afternoon_end = $10,
                   peak_evening_start = $11, peak_evening_end = $12,
                   updated_at = NOW()
               WHERE user_id = $13
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.ActiveStartHour, p.ActiveStartMinute, p.ActiveEndHour, p.ActiveEndMinute,
		p.MinGapHours, p.MoodBoostEnabled,
		p.PeakMorning.Start, p.PeakMorning.End, p.PeakAfternoon.Start, p.PeakAfternoon.End,
		p.PeakEvening.Start, p.PeakEvening.End, p.UserID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPreferenceNotFound
		}
		return fmt.Errorf("error updating timing preference: %w", err)
	}
	return nil
}

func (r *PostgresTimingRepository) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM timing_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting timing preference: %w", err)
	}
	return nil
}
