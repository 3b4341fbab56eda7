package database

import (
	"context"
	"database/sql"
	"fmt"

	"motivator_bot/internal/domain/content"

	"github.com/lib/pq" // For pq.Array
)

var ErrNoContent = fmt.Errorf("no matching content found")

type PostgresContentRepository struct {
	db *sql.DB
}

func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

func (r *PostgresContentRepository) Add(ctx context.Context, item *content.Item) error {
	query := `INSERT INTO content (body, language, category, min_mood, max_mood)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, item.Body, item.Language, item.Category, item.MinMood, item.MaxMood).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("error adding content item: %w", err)
	}
	return nil
}

// PickForMood selects a random item for the language whose mood band
// contains score, excluding recently sent IDs. Selection happens in SQL
// so the full content table never crosses the wire.
func (r *PostgresContentRepository) PickForMood(ctx context.Context, language string, score int, exclude []int64) (*content.Item, error) {
	query := `SELECT id, body, language, category, min_mood, max_mood, created_at
               FROM content
               WHERE language = $1
                 AND min_mood <= $2 AND max_mood >= $2
                 AND id != ALL($3::bigint[])
               ORDER BY RANDOM() LIMIT 1`
	if exclude == nil {
		exclude = []int64{}
	}
	item := &content.Item{}
	err := r.db.QueryRowContext(ctx, query, language, score, pq.Array(exclude)).
		Scan(&item.ID, &item.Body, &item.Language, &item.Category, &item.MinMood, &item.MaxMood, &item.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoContent
		}
		return nil, fmt.Errorf("error picking content for mood: %w", err)
	}
	return item, nil
}

func (r *PostgresContentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting content items: %w", err)
	}
	return n, nil
}
