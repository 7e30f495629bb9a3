package shield

import (
	"context"
	"time"

	"github.com/ys4e/pancake/internal/account/entity"
)

// Store is the persistence the engine needs. Lookups report a missing row
// with repo.ErrNotFound. Implemented by *repo.AccountRepo.
type Store interface {
	GetByNameOrEmail(ctx context.Context, account string) (*entity.Account, error)
	GetByUID(ctx context.Context, uid int64) (*entity.Account, error)

	DeviceExists(ctx context.Context, uid int64, device string) (bool, error)
	HasDevices(ctx context.Context, uid int64) (bool, error)
	TouchDevice(ctx context.Context, uid int64, device string, seen time.Time) error

	UpsertGrantTicket(ctx context.Context, uid int64, ticket string) error
	UpsertReactivateTicket(ctx context.Context, uid int64, ticket string) error

	GetLoginToken(ctx context.Context, uid int64, device string) (string, error)
	FindLoginToken(ctx context.Context, uid int64, token string) (*entity.LoginToken, error)
	// PutLoginToken stores token unless the pair already has one and
	// returns the token that is stored afterwards.
	PutLoginToken(ctx context.Context, uid int64, device, token string) (string, error)
}

// CountryResolver maps a client address to an ISO country code and never
// fails. Implemented by *geo.Resolver.
type CountryResolver interface {
	Country(addr string) string
}
