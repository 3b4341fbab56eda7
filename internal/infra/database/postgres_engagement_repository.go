package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"motivator_bot/internal/domain/engagement"
)

var ErrNoEngagement = fmt.Errorf("no engagement records for user")

type PostgresEngagementRepository struct {
	db *sql.DB
}

func NewPostgresEngagementRepository(db *sql.DB) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{db: db}
}

func (r *PostgresEngagementRepository) Add(ctx context.Context, rec *engagement.Record) error {
	query := `INSERT INTO engagement_log (user_id, scheduled_at, sent_at, message_type, content_id, delivered)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.ScheduledAt, rec.SentAt, rec.Type, rec.ContentID, rec.Delivered,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error adding engagement record: %w", err)
	}
	return nil
}

func (r *PostgresEngagementRepository) CountSentOn(ctx context.Context, userID int64, day time.Time) (int, error) {
	query := `SELECT COUNT(*)
               FROM engagement_log
               WHERE user_id = $1
                 AND message_type = $2
                 AND delivered = TRUE
                 AND sent_at::date = $3::date`
	var n int
	err := r.db.QueryRowContext(ctx, query, userID, engagement.TypeMotivational, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting sends for day: %w", err)
	}
	return n, nil
}

func (r *PostgresEngagementRepository) LastSentAt(ctx context.Context, userID int64) (time.Time, error) {
	query := `SELECT sent_at
               FROM engagement_log
               WHERE user_id = $1 AND message_type = $2 AND delivered = TRUE
               ORDER BY sent_at DESC LIMIT 1`
	var ts time.Time
	err := r.db.QueryRowContext(ctx, query, userID, engagement.TypeMotivational).Scan(&ts)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, ErrNoEngagement
		}
		return time.Time{}, fmt.Errorf("error getting last send time: %w", err)
	}
	return ts, nil
}

func (r *PostgresEngagementRepository) RecentContentIDs(ctx context.Context, userID int64, limit int) ([]int64, error) {
	query := `SELECT content_id
               FROM engagement_log
               WHERE user_id = $1 AND delivered = TRUE AND content_id IS NOT NULL
               ORDER BY sent_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent content IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning content ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content IDs: %w", err)
	}
	return ids, nil
}

func (r *PostgresEngagementRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM engagement_log WHERE user_id = $1 AND delivered = TRUE`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting user engagement: %w", err)
	}
	return n, nil
}

func (r *PostgresEngagementRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM engagement_log WHERE delivered = TRUE`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting engagement records: %w", err)
	}
	return n, nil
}

func (r *PostgresEngagementRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM engagement_log WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting engagement records: %w", err)
	}
	return nil
}
