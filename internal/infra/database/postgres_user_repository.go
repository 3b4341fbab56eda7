package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"motivator_bot/internal/domain/user"
)

// Custom errors
var ErrUserNotFound = fmt.Errorf("user not found")
var ErrDuplicateUser = fmt.Errorf("user with this ID already exists")

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (id, username, first_name, language, message_frequency, is_active)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING created_at, last_active`

	err := r.db.QueryRowContext(ctx, query, u.ID, u.Username, u.FirstName, u.Language, u.MessageFrequency, u.IsActive).
		Scan(&u.CreatedAt, &u.LastActive)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") || strings.Contains(err.Error(), "users_pkey") {
			return ErrDuplicateUser
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, username, first_name, language, message_frequency, is_active, created_at, last_active
               FROM users WHERE id = $1`
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.Language, &u.MessageFrequency, &u.IsActive, &u.CreatedAt, &u.LastActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users
               SET first_name = $1, language = $2, message_frequency = $3, is_active = $4
               WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, u.FirstName, u.Language, u.MessageFrequency, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("error setting user active flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) TouchLastActive(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error touching last_active: %w", err)
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]*user.User, error) {
	users := make([]*user.User, 0)
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.Language, &u.MessageFrequency, &u.IsActive, &u.CreatedAt, &u.LastActive); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) ListActive(ctx context.Context) ([]*user.User, error) {
	query := `SELECT id, username, first_name, language, message_frequency, is_active, created_at, last_active
               FROM users WHERE is_active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT id, username, first_name, language, message_frequency, is_active, created_at, last_active
               FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
