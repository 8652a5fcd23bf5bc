package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/roster/internal/apperror"
)

// mysqlDuplicateEntry is MariaDB's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// UserRepository defines the data access contract for principals.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindOne(ctx context.Context, filter Filter) (*User, error)
	UpdateByID(ctx context.Context, id string, user *User) (*User, error)
	DeleteByID(ctx context.Context, id string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, first_name, last_name, email, password_hash,
	                 api_token, created_at, updated_at`

// Create inserts a new user row. A duplicate username, email or API token
// becomes a conflict error.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, first_name, last_name, email,
	                             password_hash, api_token, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		nullable(user.APIToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return apperror.NewConflict("username or email is already taken")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindAll returns every user, newest first.
func (r *userRepository) FindAll(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindOne returns the first user matching every non-empty field of filter.
func (r *userRepository) FindOne(ctx context.Context, filter Filter) (*User, error) {
	var conds []string
	var args []any
	if filter.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, filter.Email)
	}
	if filter.APIToken != "" {
		conds = append(conds, "api_token = ?")
		args = append(args, filter.APIToken)
	}
	if len(conds) == 0 {
		return nil, apperror.NewBadRequest("empty user filter")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` +
		strings.Join(conds, " AND ") + ` LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by filter: %w", err)
	}
	return user, nil
}

// UpdateByID writes the editable fields in one statement and returns the
// updated row. An empty PasswordHash keeps the stored one.
func (r *userRepository) UpdateByID(ctx context.Context, id string, user *User) (*User, error) {
	query := `UPDATE users
	          SET username = ?, first_name = ?, last_name = ?, email = ?,
	              password_hash = IF(? = '', password_hash, ?),
	              updated_at = ?
	          WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash, user.PasswordHash,
		user.UpdatedAt,
		id,
	)
	if err != nil {
		if isDuplicate(err) {
			return nil, apperror.NewConflict("username or email is already taken")
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	// MariaDB reports zero affected rows for a no-op update, so existence is
	// decided by the read below rather than RowsAffected.
	return r.FindByID(ctx, id)
}

// DeleteByID removes a user.
func (r *userRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var apiToken sql.NullString
	if err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &apiToken, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.APIToken = apiToken.String
	return u, nil
}

// nullable stores empty strings as NULL so the unique index on api_token
// allows many users without a token.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
