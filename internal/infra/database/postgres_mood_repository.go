package database

import (
	"context"
	"database/sql"
	"fmt"

	"motivator_bot/internal/domain/mood"
)

type PostgresMoodRepository struct {
	db *sql.DB
}

func NewPostgresMoodRepository(db *sql.DB) *PostgresMoodRepository {
	return &PostgresMoodRepository{db: db}
}

func (r *PostgresMoodRepository) Add(ctx context.Context, e *mood.Entry) error {
	query := `INSERT INTO mood_entries (user_id, score, note)
               VALUES ($1, $2, $3)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.Score, e.Note).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error adding mood entry: %w", err)
	}
	return nil
}

func (r *PostgresMoodRepository) ListRecent(ctx context.Context, userID int64, lookbackDays int) ([]*mood.Entry, error) {
	query := `SELECT id, user_id, score, note, created_at
               FROM mood_entries
               WHERE user_id = $1 AND created_at >= NOW() - ($2 * INTERVAL '1 day')
               ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("error listing recent mood entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*mood.Entry, 0)
	for rows.Next() {
		e := &mood.Entry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Score, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning mood entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood entries: %w", err)
	}
	return entries, nil
}

func (r *PostgresMoodRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mood_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting mood entries: %w", err)
	}
	return n, nil
}

func (r *PostgresMoodRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting mood entries: %w", err)
	}
	return nil
}
