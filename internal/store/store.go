// File: internal/store/store.go

// Package store persists scrape results in PostgreSQL. Accounts are keyed
// by their vanity username; posts are keyed by URN and upserted so repeated
// scrapes refresh counters without duplicating records.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/linkedin"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// DBPool abstracts pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// User is one scraped account.
type User struct {
	ID       int64
	Username string
	Email    string
}

// Store is the PostgreSQL-backed repository.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		urn TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		images TEXT[] NOT NULL DEFAULT '{}',
		likes_count INT NOT NULL DEFAULT 0,
		comments_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id);`,
}

// EnsureSchema creates the tables if they do not exist. Safe to run on
// every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

const userByEmailSQL = `
	SELECT id, username, email FROM users WHERE email = $1 ORDER BY updated_at DESC LIMIT 1;
`

// UserByEmail returns the most recently refreshed account that logged in
// with the given email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, userByEmailSQL, email))
}

const userByUsernameSQL = `
	SELECT id, username, email FROM users WHERE username = $1;
`

// UserByUsername returns the account with the given vanity name.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, userByUsernameSQL, username))
}

func (s *Store) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &u, nil
}

const postsForUserSQL = `
	SELECT urn, description, images, likes_count, comments_count
	FROM posts
	WHERE user_id = $1
	ORDER BY id ASC;
`

// PostsForUser returns the stored posts for a user in first-seen order.
func (s *Store) PostsForUser(ctx context.Context, userID int64) ([]linkedin.PostRecord, error) {
	rows, err := s.pool.Query(ctx, postsForUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []linkedin.PostRecord{}
	for rows.Next() {
		var p linkedin.PostRecord
		if err := rows.Scan(&p.URN, &p.Description, &p.Images, &p.LikesCount, &p.CommentsCount); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return posts, nil
}

const upsertUserSQL = `
	INSERT INTO users (username, email, password, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (username) DO UPDATE SET
		email = EXCLUDED.email,
		password = EXCLUDED.password,
		updated_at = EXCLUDED.updated_at
	RETURNING id;
`

const upsertPostSQL = `
	INSERT INTO posts (user_id, urn, description, images, likes_count, comments_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (urn) DO UPDATE SET
		description = EXCLUDED.description,
		images = EXCLUDED.images,
		likes_count = EXCLUDED.likes_count,
		comments_count = EXCLUDED.comments_count,
		updated_at = EXCLUDED.updated_at;
`

// SaveScrape writes the user and the full post set in one transaction. The
// user is upserted by username so a re-scrape refreshes the account, and
// each post is upserted by URN.
func (s *Store) SaveScrape(ctx context.Context, creds linkedin.Credentials, res *linkedin.ScrapeResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	now := time.Now().UTC()

	var userID int64
	if err := tx.QueryRow(ctx, upsertUserSQL, res.Username, creds.Email, creds.Password, now).Scan(&userID); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", res.Username, err)
	}

	if len(res.Posts) > 0 {
		batch := &pgx.Batch{}
		for _, p := range res.Posts {
			images := p.Images
			if images == nil {
				images = []string{}
			}
			batch.Queue(upsertPostSQL, userID, p.URN, p.Description, images, p.LikesCount, p.CommentsCount, now)
		}

		br := tx.SendBatch(ctx, batch)
		if br == nil {
			return fmt.Errorf("failed to send batch: batch results is nil")
		}
		for i := range res.Posts {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to upsert post %s (index %d): %w", res.Posts[i].URN, i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close batch results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Persisted scrape result",
		zap.String("username", res.Username), zap.Int("posts", len(res.Posts)))
	return nil
}
