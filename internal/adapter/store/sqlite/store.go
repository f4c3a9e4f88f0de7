// Package sqlite persists reviews using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/bkyoung/bookreviewer/internal/domain"
)

// Store implements the review persistence port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per created review; costs are stored as decimal strings to
	-- keep exact amounts across round trips.
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		original_content TEXT NOT NULL,
		improved_content TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		usd_cost TEXT NOT NULL,
		krw_cost TEXT,
		file_id TEXT NOT NULL DEFAULT '',
		owner_user_id TEXT NOT NULL,
		ai_status TEXT NOT NULL,
		currency_status TEXT NOT NULL,
		storage_status TEXT NOT NULL,
		warning_message TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_owner ON reviews(owner_user_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

const reviewColumns = `id, title, original_content, improved_content, token_count,
		usd_cost, krw_cost, file_id, owner_user_id,
		ai_status, currency_status, storage_status, warning_message, created_at`

// Save stores a review record, assigning a ULID and creation time when the
// caller left them unset. The review is updated in place with the assigned
// values.
func (s *Store) Save(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		review.ID = ulid.Make().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	var krw sql.NullString
	if review.KRWCost != nil {
		krw = sql.NullString{String: review.KRWCost.String(), Valid: true}
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		review.ID,
		review.Title,
		review.OriginalContent,
		review.ImprovedContent,
		review.TokenCount,
		review.USDCost.String(),
		krw,
		review.FileID,
		review.OwnerUserID,
		string(review.Integration.AI),
		string(review.Integration.Currency),
		string(review.Integration.Storage),
		review.Integration.WarningMessage,
		review.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}

	return nil
}

// Get retrieves a review by ID regardless of owner.
func (s *Store) Get(ctx context.Context, id string) (domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	return s.scanReview(s.db.QueryRowContext(ctx, query, id))
}

// GetForOwner retrieves a review by ID only when it belongs to the given
// owner. A review owned by someone else is indistinguishable from a missing
// one.
func (s *Store) GetForOwner(ctx context.Context, id, ownerUserID string) (domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ? AND owner_user_id = ?`
	return s.scanReview(s.db.QueryRowContext(ctx, query, id, ownerUserID))
}

// List retrieves all reviews, newest first.
func (s *Store) List(ctx context.Context) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC, id DESC`
	return s.queryReviews(ctx, query)
}

// ListByOwner retrieves the given owner's reviews, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE owner_user_id = ? ORDER BY created_at DESC, id DESC`
	return s.queryReviews(ctx, query, ownerUserID)
}

// Delete removes a review record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanReview(row rowScanner) (domain.Review, error) {
	var (
		review    domain.Review
		usdCost   string
		krwCost   sql.NullString
		createdAt int64
	)

	err := row.Scan(
		&review.ID,
		&review.Title,
		&review.OriginalContent,
		&review.ImprovedContent,
		&review.TokenCount,
		&usdCost,
		&krwCost,
		&review.FileID,
		&review.OwnerUserID,
		&review.Integration.AI,
		&review.Integration.Currency,
		&review.Integration.Storage,
		&review.Integration.WarningMessage,
		&createdAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, fmt.Errorf("failed to get review: %w", err)
	}

	review.USDCost, err = decimal.NewFromString(usdCost)
	if err != nil {
		return domain.Review{}, fmt.Errorf("failed to parse usd cost %q: %w", usdCost, err)
	}
	if krwCost.Valid {
		krw, err := decimal.NewFromString(krwCost.String)
		if err != nil {
			return domain.Review{}, fmt.Errorf("failed to parse krw cost %q: %w", krwCost.String, err)
		}
		review.KRWCost = &krw
	}
	review.CreatedAt = time.Unix(createdAt, 0).UTC()

	return review, nil
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...interface{}) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		review, err := s.scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
