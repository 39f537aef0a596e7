package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"revvel/internal/platform/database"
)

// SQLStore implements Store on PostgreSQL or SQLite. Queries use ? placeholders
// rebound to the driver's bindvar style.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const userColumns = `id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in`

// UpsertUser inserts the user or updates only the provided fields.
func (r *SQLStore) UpsertUser(ctx context.Context, user UserUpsert) error {
	if user.OpenID == "" {
		return ErrOpenIDRequired
	}

	const query = `
		INSERT INTO users (id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, ?, COALESCE(?, 'user'), ?, ?, ?)
		ON CONFLICT (open_id) DO UPDATE SET
			name = COALESCE(excluded.name, users.name),
			email = COALESCE(excluded.email, users.email),
			login_method = COALESCE(excluded.login_method, users.login_method),
			role = COALESCE(?, users.role),
			updated_at = excluded.updated_at,
			last_signed_in = excluded.last_signed_in
	`

	now := r.now()
	role := roleParam(user.Role)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		uuid.New(),
		user.OpenID,
		user.Name,
		user.Email,
		user.LoginMethod,
		role,
		now,
		now,
		signedInAt(user, now),
		role,
	)
	return err
}

// CreateUser inserts a password account in a single statement. The partial
// unique index on lower(email) turns a concurrent duplicate into ErrEmailTaken.
func (r *SQLStore) CreateUser(ctx context.Context, user UserUpsert, passwordHash string) error {
	if user.OpenID == "" {
		return ErrOpenIDRequired
	}

	const query = `
		INSERT INTO users (id, open_id, name, email, login_method, role, password_hash, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, ?, COALESCE(?, 'user'), ?, ?, ?, ?)
	`

	now := r.now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		uuid.New(),
		user.OpenID,
		user.Name,
		user.Email,
		user.LoginMethod,
		roleParam(user.Role),
		passwordHash,
		now,
		now,
		signedInAt(user, now),
	)
	if database.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// GetUserByOpenID looks up a user by openId.
func (r *SQLStore) GetUserByOpenID(ctx context.Context, openID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE open_id = ?`

	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), openID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// GetUserByEmail looks up a user by email, case-insensitively. Password
// accounts win over OAuth accounts sharing the address.
func (r *SQLStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower(?)
		ORDER BY CASE WHEN login_method = 'email' THEN 0 ELSE 1 END, created_at
		LIMIT 1
	`

	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// SetPasswordHash stores the password hash for the user.
func (r *SQLStore) SetPasswordHash(ctx context.Context, openID, hash string) error {
	const query = `UPDATE users SET password_hash = ?, updated_at = ? WHERE open_id = ?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), hash, r.now(), openID)
	return err
}

// GetPasswordHash returns the password hash, or "" for OAuth-only and unknown users.
func (r *SQLStore) GetPasswordHash(ctx context.Context, openID string) (string, error) {
	const query = `SELECT password_hash FROM users WHERE open_id = ?`

	var hash sql.NullString
	if err := r.db.GetContext(ctx, &hash, r.db.Rebind(query), openID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return hash.String, nil
}

func roleParam(role *Role) any {
	if role == nil {
		return nil
	}
	return string(*role)
}

func signedInAt(user UserUpsert, now time.Time) time.Time {
	if user.LastSignedIn != nil {
		return user.LastSignedIn.UTC()
	}
	return now
}

// userRow is a database row representation of User.
type userRow struct {
	ID           uuid.UUID `db:"id"`
	OpenID       string    `db:"open_id"`
	Name         *string   `db:"name"`
	Email        *string   `db:"email"`
	LoginMethod  *string   `db:"login_method"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastSignedIn time.Time `db:"last_signed_in"`
}

func (r *userRow) toUser() *User {
	return &User{
		ID:           r.ID,
		OpenID:       r.OpenID,
		Name:         r.Name,
		Email:        r.Email,
		LoginMethod:  r.LoginMethod,
		Role:         Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastSignedIn: r.LastSignedIn,
	}
}
