package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/roster/internal/apperror"
)

// mysqlDuplicateEntry is MariaDB's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// SubscriberRepository defines the data access contract for subscribers.
type SubscriberRepository interface {
	Create(ctx context.Context, s *Subscriber) error
	FindByID(ctx context.Context, id string) (*Subscriber, error)
	FindAll(ctx context.Context) ([]Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*Subscriber, error)
	UpdateByID(ctx context.Context, id string, in Input) (*Subscriber, error)
	DeleteByID(ctx context.Context, id string) error
}

type subscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository creates a new repository backed by the given DB pool.
func NewSubscriberRepository(db *sql.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

// Create inserts a subscriber. Emails are unique.
func (r *subscriberRepository) Create(ctx context.Context, s *Subscriber) error {
	query := `INSERT INTO subscribers (id, name, email, zip_code, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Email, s.ZipCode, s.CreatedAt); err != nil {
		if isDuplicate(err) {
			return apperror.NewConflict("email is already subscribed")
		}
		return fmt.Errorf("inserting subscriber: %w", err)
	}
	return nil
}

// FindByID retrieves a subscriber by ID.
func (r *subscriberRepository) FindByID(ctx context.Context, id string) (*Subscriber, error) {
	query := `SELECT id, name, email, zip_code, created_at FROM subscribers WHERE id = ?`
	return r.findOne(ctx, query, id)
}

// FindByEmail retrieves a subscriber by email address.
func (r *subscriberRepository) FindByEmail(ctx context.Context, email string) (*Subscriber, error) {
	query := `SELECT id, name, email, zip_code, created_at FROM subscribers WHERE email = ?`
	return r.findOne(ctx, query, email)
}

func (r *subscriberRepository) findOne(ctx context.Context, query string, arg any) (*Subscriber, error) {
	s := &Subscriber{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.Name, &s.Email, &s.ZipCode, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("subscriber not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscriber: %w", err)
	}
	return s, nil
}

// FindAll returns every subscriber, newest first.
func (r *subscriberRepository) FindAll(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, zip_code, created_at FROM subscribers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ZipCode, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscriber row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateByID writes all editable fields in one statement and returns the
// updated row.
func (r *subscriberRepository) UpdateByID(ctx context.Context, id string, in Input) (*Subscriber, error) {
	query := `UPDATE subscribers SET name = ?, email = ?, zip_code = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, in.Name, in.Email, in.ZipCode, id); err != nil {
		if isDuplicate(err) {
			return nil, apperror.NewConflict("email is already subscribed")
		}
		return nil, fmt.Errorf("updating subscriber: %w", err)
	}
	return r.FindByID(ctx, id)
}

// DeleteByID removes a subscriber.
func (r *subscriberRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("subscriber not found")
	}
	return nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
