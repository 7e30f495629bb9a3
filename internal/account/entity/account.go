package entity

import (
	"fmt"
	"time"
)

// State is the lifecycle state of an account. The numeric values are the
// persisted codes of the accounts.state column.
type State int16

const (
	StateDeleted       State = 0
	StateActive        State = 1
	StatePendingDelete State = 2
	StateLegalHold     State = 3
)

// ParseState converts a persisted code into a State.
func ParseState(code int16) (State, error) {
	s := State(code)
	switch s {
	case StateDeleted, StateActive, StatePendingDelete, StateLegalHold:
		return s, nil
	}
	return 0, fmt.Errorf("unknown account state %d", code)
}

// CanLogin reports whether an account in this state may complete a login.
func (s State) CanLogin() bool {
	return s == StateActive || s == StatePendingDelete
}

func (s State) String() string {
	switch s {
	case StateDeleted:
		return "deleted"
	case StateActive:
		return "active"
	case StatePendingDelete:
		return "pending_delete"
	case StateLegalHold:
		return "legal_hold"
	}
	return fmt.Sprintf("state(%d)", int16(s))
}

// Account represents a row in the `accounts` table.
// Password is nil for accounts created without one (third-party linked).
type Account struct {
	UID       int64
	Name      *string
	Email     *string
	Mobile    *string
	Password  *string
	State     State
	CreatedAt time.Time
}

// Device is a (uid, device) pair that completed a trusted login.
type Device struct {
	UID      int64     `db:"uid"`
	Device   string    `db:"device"`
	LastSeen time.Time `db:"last_seen"`
}

// LoginToken is the single live session token of a (uid, device) pair.
type LoginToken struct {
	UID    int64  `db:"uid"`
	Device string `db:"device"`
	Token  string `db:"token"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DisplayFields returns name, email and mobile with nil mapped to "".
func (a *Account) DisplayFields() (name, email, mobile string) {
	return deref(a.Name), deref(a.Email), deref(a.Mobile)
}
