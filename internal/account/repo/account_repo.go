package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ys4e/pancake/internal/account/entity"
)

// NOTE: expected table schema (Postgres):
// CREATE EXTENSION IF NOT EXISTS citext;
// CREATE TABLE accounts (
//   uid BIGSERIAL PRIMARY KEY,
//   name TEXT UNIQUE,
//   email CITEXT UNIQUE,
//   mobile TEXT,
//   password TEXT,
//   state SMALLINT NOT NULL DEFAULT 1,
//   created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
// );
// CREATE TABLE devices (
//   uid BIGINT NOT NULL, device TEXT NOT NULL, last_seen TIMESTAMPTZ NOT NULL,
//   PRIMARY KEY (uid, device)
// );
// CREATE TABLE login_tokens (
//   uid BIGINT NOT NULL, device TEXT NOT NULL, token TEXT NOT NULL,
//   PRIMARY KEY (uid, device)
// );
// CREATE TABLE grant_tickets (uid BIGINT PRIMARY KEY, ticket TEXT NOT NULL);
// CREATE TABLE reactivate_tickets (uid BIGINT PRIMARY KEY, ticket TEXT NOT NULL);

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// AccountRepo provides data access for accounts and their per-device
// session state using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

type accountRow struct {
	UID       int64     `db:"uid"`
	Name      *string   `db:"name"`
	Email     *string   `db:"email"`
	Mobile    *string   `db:"mobile"`
	Password  *string   `db:"password"`
	State     int16     `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}

func (r accountRow) toEntity() (*entity.Account, error) {
	state, err := entity.ParseState(r.State)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", r.UID, err)
	}
	return &entity.Account{
		UID:       r.UID,
		Name:      r.Name,
		Email:     r.Email,
		Mobile:    r.Mobile,
		Password:  r.Password,
		State:     state,
		CreatedAt: r.CreatedAt,
	}, nil
}

const accountColumns = `uid, name, email, mobile, password, state, created_at`

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// GetByNameOrEmail returns the account whose name or email equals account.
func (r *AccountRepo) GetByNameOrEmail(ctx context.Context, account string) (*entity.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE name=$1 OR email=$1 ORDER BY uid LIMIT 1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, q, account); err != nil {
		return nil, notFound(err)
	}
	return row.toEntity()
}

// GetByUID fetches an account by its uid.
func (r *AccountRepo) GetByUID(ctx context.Context, uid int64) (*entity.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE uid=$1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, q, uid); err != nil {
		return nil, notFound(err)
	}
	return row.toEntity()
}

// ExistsByNameOrEmail reports whether name or email is already taken.
func (r *AccountRepo) ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE name=$1 OR email=$2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, name, email); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts an active account and returns its uid.
func (r *AccountRepo) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	const q = `INSERT INTO accounts (name, email, password, state) VALUES ($1, $2, $3, $4) RETURNING uid`
	var uid int64
	if err := r.db.QueryRowxContext(ctx, q, name, email, passwordHash, int16(entity.StateActive)).Scan(&uid); err != nil {
		return 0, err
	}
	return uid, nil
}

// DeviceExists reports whether device is registered for uid.
func (r *AccountRepo) DeviceExists(ctx context.Context, uid int64, device string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM devices WHERE uid=$1 AND device=$2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, uid, device); err != nil {
		return false, err
	}
	return exists, nil
}

// HasDevices reports whether uid has any registered device.
func (r *AccountRepo) HasDevices(ctx context.Context, uid int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM devices WHERE uid=$1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, uid); err != nil {
		return false, err
	}
	return exists, nil
}

// TouchDevice registers the device or refreshes its last_seen.
func (r *AccountRepo) TouchDevice(ctx context.Context, uid int64, device string, seen time.Time) error {
	const q = `INSERT INTO devices (uid, device, last_seen) VALUES ($1, $2, $3)
	           ON CONFLICT (uid, device) DO UPDATE SET last_seen = EXCLUDED.last_seen`
	_, err := r.db.ExecContext(ctx, q, uid, device, seen)
	return err
}

// UpsertGrantTicket stores ticket as the only device grant ticket of uid.
func (r *AccountRepo) UpsertGrantTicket(ctx context.Context, uid int64, ticket string) error {
	const q = `INSERT INTO grant_tickets (uid, ticket) VALUES ($1, $2)
	           ON CONFLICT (uid) DO UPDATE SET ticket = EXCLUDED.ticket`
	_, err := r.db.ExecContext(ctx, q, uid, ticket)
	return err
}

// UpsertReactivateTicket stores ticket as the only reactivation ticket of uid.
func (r *AccountRepo) UpsertReactivateTicket(ctx context.Context, uid int64, ticket string) error {
	const q = `INSERT INTO reactivate_tickets (uid, ticket) VALUES ($1, $2)
	           ON CONFLICT (uid) DO UPDATE SET ticket = EXCLUDED.ticket`
	_, err := r.db.ExecContext(ctx, q, uid, ticket)
	return err
}

// GetLoginToken returns the live token of (uid, device).
func (r *AccountRepo) GetLoginToken(ctx context.Context, uid int64, device string) (string, error) {
	const q = `SELECT token FROM login_tokens WHERE uid=$1 AND device=$2`
	var tok string
	if err := r.db.GetContext(ctx, &tok, q, uid, device); err != nil {
		return "", notFound(err)
	}
	return tok, nil
}

// FindLoginToken looks a token up by its value for uid.
func (r *AccountRepo) FindLoginToken(ctx context.Context, uid int64, token string) (*entity.LoginToken, error) {
	const q = `SELECT uid, device, token FROM login_tokens WHERE uid=$1 AND token=$2`
	var lt entity.LoginToken
	if err := r.db.GetContext(ctx, &lt, q, uid, token); err != nil {
		return nil, notFound(err)
	}
	return &lt, nil
}

// PutLoginToken inserts token for (uid, device) unless one already exists,
// and returns whichever token is stored afterwards. Concurrent callers for
// the same pair therefore all observe the first committed token.
func (r *AccountRepo) PutLoginToken(ctx context.Context, uid int64, device, token string) (string, error) {
	const q = `INSERT INTO login_tokens (uid, device, token) VALUES ($1, $2, $3)
	           ON CONFLICT (uid, device) DO UPDATE SET token = login_tokens.token
	           RETURNING token`
	var stored string
	if err := r.db.GetContext(ctx, &stored, q, uid, device, token); err != nil {
		return "", err
	}
	return stored, nil
}
