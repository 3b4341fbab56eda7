package database

import (
	"context"
	"database/sql"
	"fmt"

	"motivator_bot/internal/domain/goal"
)

var ErrGoalNotFound = fmt.Errorf("goal not found")

type PostgresGoalRepository struct {
	db *sql.DB
}

func NewPostgresGoalRepository(db *sql.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

func (r *PostgresGoalRepository) Create(ctx context.Context, g *goal.Goal) error {
	query := `INSERT INTO goals (user_id, title, category)
               VALUES ($1, $2, $3)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, g.UserID, g.Title, g.Category).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating goal: %w", err)
	}
	return nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id int64) (*goal.Goal, error) {
	query := `SELECT id, user_id, title, category, is_done, created_at, completed_at
               FROM goals WHERE id = $1`
	g := &goal.Goal{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&g.ID, &g.UserID, &g.Title, &g.Category, &g.IsDone, &g.CreatedAt, &g.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("error getting goal by ID: %w", err)
	}
	return g, nil
}

func (r *PostgresGoalRepository) ListByUser(ctx context.Context, userID int64, includeDone bool) ([]*goal.Goal, error) {
	query := `SELECT id, user_id, title, category, is_done, created_at, completed_at
               FROM goals
               WHERE user_id = $1 AND (is_done = FALSE OR $2)
               ORDER BY is_done, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, includeDone)
	if err != nil {
		return nil, fmt.Errorf("error listing goals: %w", err)
	}
	defer rows.Close()

	goals := make([]*goal.Goal, 0)
	for rows.Next() {
		g := &goal.Goal{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Category, &g.IsDone, &g.CreatedAt, &g.CompletedAt); err != nil {
			return nil, fmt.Errorf("error scanning goal row: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal rows: %w", err)
	}
	return goals, nil
}

func (r *PostgresGoalRepository) MarkDone(ctx context.Context, id, userID int64) error {
	query := `UPDATE goals SET is_done = TRUE, completed_at = NOW()
               WHERE id = $1 AND user_id = $2 AND is_done = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("error marking goal done: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *PostgresGoalRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *PostgresGoalRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting user goals: %w", err)
	}
	return nil
}
