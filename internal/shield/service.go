// Package shield authenticates login and verify requests and issues the
// per-device session state of an account.
package shield

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/account/entity"
	"github.com/ys4e/pancake/internal/account/repo"
	"github.com/ys4e/pancake/internal/credential"
	"github.com/ys4e/pancake/internal/mask"
	"github.com/ys4e/pancake/internal/metrics"
	"github.com/ys4e/pancake/internal/token"
)

// Service orchestrates authentication and session issuance.
type Service struct {
	store  Store
	codec  *credential.Codec
	hasher credential.PasswordHasher
	geo    CountryResolver
	logger *zap.SugaredLogger

	newToken func() (string, error)
	now      func() time.Time
}

func NewService(store Store, codec *credential.Codec, hasher credential.PasswordHasher, geo CountryResolver, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = credential.BcryptHasher{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:    store,
		codec:    codec,
		hasher:   hasher,
		geo:      geo,
		logger:   logger,
		newToken: token.Generate,
		now:      time.Now,
	}
}

// Login authenticates by username or email and password.
func (s *Service) Login(ctx context.Context, req LoginRequest, client Client) (*LoginResult, error) {
	// decode first so malformed input never reaches the store
	password, err := s.codec.Decode(req.Password, req.IsCrypto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	name := strings.TrimSpace(req.Account)
	if name == "" {
		return nil, ErrInvalidCredential
	}
	acct, err := s.store.GetByNameOrEmail(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !acct.State.CanLogin() {
		return nil, ErrInvalidCredential
	}
	// accounts created without a password are matched on name alone
	if acct.Password != nil && !s.hasher.Verify(*acct.Password, password) {
		return nil, ErrInvalidCredential
	}

	return s.issue(ctx, acct, client)
}

// Verify resumes a session from a previously issued login token.
func (s *Service) Verify(ctx context.Context, req VerifyRequest, client Client) (*LoginResult, error) {
	acct, err := s.Authenticate(ctx, int64(req.UID), req.Token, client.Device)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, acct, client)
}

// Authenticate checks that token is the live login token of uid on device
// and returns the account. It has no side effects.
func (s *Service) Authenticate(ctx context.Context, uid int64, tok, device string) (*entity.Account, error) {
	if tok == "" {
		return nil, ErrBadToken
	}
	lt, err := s.store.FindLoginToken(ctx, uid, tok)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBadToken
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if subtle.ConstantTimeCompare([]byte(lt.Device), []byte(device)) != 1 {
		return nil, ErrDeviceMismatch
	}

	acct, err := s.store.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBadToken
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !acct.State.CanLogin() {
		return nil, ErrInvalidCredential
	}
	return acct, nil
}

// issue runs the post-authentication steps. Store writes here are
// bookkeeping: failures are logged and counted but the login still
// succeeds.
func (s *Service) issue(ctx context.Context, acct *entity.Account, client Client) (*LoginResult, error) {
	uid := acct.UID

	var reactivateTicket *string
	if acct.State == entity.StatePendingDelete {
		t, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("%w: reactivate ticket: %w", ErrInternal, err)
		}
		if err := s.store.UpsertReactivateTicket(ctx, uid, t); err != nil {
			s.bookkeepingFailed("reactivate_ticket", uid, err)
		}
		metrics.RecordTicket(metrics.TicketReactivate)
		reactivateTicket = &t
	}

	var grantTicket *string
	grant, err := needsGrant(ctx, s.store, uid, client.Device)
	if err != nil {
		s.bookkeepingFailed("device_lookup", uid, err)
	}
	if grant {
		t, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("%w: grant ticket: %w", ErrInternal, err)
		}
		if err := s.store.UpsertGrantTicket(ctx, uid, t); err != nil {
			s.bookkeepingFailed("grant_ticket", uid, err)
		}
		metrics.RecordTicket(metrics.TicketGrant)
		grantTicket = &t
	} else if err := s.store.TouchDevice(ctx, uid, client.Device, s.now()); err != nil {
		s.bookkeepingFailed("device", uid, err)
	}

	tok, err := s.loginToken(ctx, uid, client.Device)
	if err != nil {
		return nil, err
	}

	name, email, mobile := acct.DisplayFields()
	country := "ZZ"
	if s.geo != nil {
		country = s.geo.Country(client.IP)
	}
	return &LoginResult{
		Account: AccountData{
			UID:               uid,
			Name:              mask.String(name),
			Email:             mask.String(email),
			Mobile:            mask.String(mobile),
			Token:             tok,
			Country:           country,
			DeviceGrantTicket: grantTicket,
			ReactivateTicket:  reactivateTicket,
		},
		DeviceGrantRequired: grantTicket != nil,
		ReactivateRequired:  reactivateTicket != nil,
		RealnameOperation:   realnameOperationNone,
	}, nil
}

// loginToken reuses the live token of (uid, device) or mints one.
func (s *Service) loginToken(ctx context.Context, uid int64, device string) (string, error) {
	existing, err := s.store.GetLoginToken(ctx, uid, device)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		s.bookkeepingFailed("login_token_lookup", uid, err)
	}

	fresh, err := s.newToken()
	if err != nil {
		return "", fmt.Errorf("%w: login token: %w", ErrInternal, err)
	}
	stored, err := s.store.PutLoginToken(ctx, uid, device, fresh)
	if err != nil {
		s.bookkeepingFailed("login_token", uid, err)
		return fresh, nil
	}
	if stored == fresh {
		metrics.RecordTicket(metrics.TicketLoginToken)
	}
	return stored, nil
}

func (s *Service) bookkeepingFailed(step string, uid int64, err error) {
	metrics.RecordBookkeepingFailure(step)
	s.logger.Warnw("session bookkeeping failed", "step", step, "uid", uid, "err", err)
}
