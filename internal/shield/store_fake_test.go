package shield

import (
	"context"
	"sync"
	"time"

	"github.com/ys4e/pancake/internal/account/entity"
	"github.com/ys4e/pancake/internal/account/repo"
)

type pair struct {
	uid    int64
	device string
}

// memStore is an in-memory Store with per-method failure injection.
type memStore struct {
	mu          sync.Mutex
	accounts    map[int64]*entity.Account
	devices     map[pair]time.Time
	tokens      map[pair]string
	grants      map[int64]string
	reactivates map[int64]string

	fail  map[string]error
	calls map[string]int
}

func newMemStore(accounts ...*entity.Account) *memStore {
	s := &memStore{
		accounts:    map[int64]*entity.Account{},
		devices:     map[pair]time.Time{},
		tokens:      map[pair]string{},
		grants:      map[int64]string{},
		reactivates: map[int64]string{},
		fail:        map[string]error{},
		calls:       map[string]int{},
	}
	for _, a := range accounts {
		s.accounts[a.UID] = a
	}
	return s
}

func (s *memStore) enter(method string) error {
	s.calls[method]++
	return s.fail[method]
}

func (s *memStore) GetByNameOrEmail(_ context.Context, account string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetByNameOrEmail"); err != nil {
		return nil, err
	}
	var found *entity.Account
	for _, a := range s.accounts {
		if (a.Name != nil && *a.Name == account) || (a.Email != nil && *a.Email == account) {
			if found == nil || a.UID < found.UID {
				found = a
			}
		}
	}
	if found == nil {
		return nil, repo.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (s *memStore) GetByUID(_ context.Context, uid int64) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetByUID"); err != nil {
		return nil, err
	}
	a, ok := s.accounts[uid]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) DeviceExists(_ context.Context, uid int64, device string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeviceExists"); err != nil {
		return false, err
	}
	_, ok := s.devices[pair{uid, device}]
	return ok, nil
}

func (s *memStore) HasDevices(_ context.Context, uid int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("HasDevices"); err != nil {
		return false, err
	}
	for k := range s.devices {
		if k.uid == uid {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) TouchDevice(_ context.Context, uid int64, device string, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("TouchDevice"); err != nil {
		return err
	}
	s.devices[pair{uid, device}] = seen
	return nil
}

func (s *memStore) UpsertGrantTicket(_ context.Context, uid int64, ticket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertGrantTicket"); err != nil {
		return err
	}
	s.grants[uid] = ticket
	return nil
}

func (s *memStore) UpsertReactivateTicket(_ context.Context, uid int64, ticket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertReactivateTicket"); err != nil {
		return err
	}
	s.reactivates[uid] = ticket
	return nil
}

func (s *memStore) GetLoginToken(_ context.Context, uid int64, device string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetLoginToken"); err != nil {
		return "", err
	}
	t, ok := s.tokens[pair{uid, device}]
	if !ok {
		return "", repo.ErrNotFound
	}
	return t, nil
}

func (s *memStore) FindLoginToken(_ context.Context, uid int64, token string) (*entity.LoginToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindLoginToken"); err != nil {
		return nil, err
	}
	for k, t := range s.tokens {
		if k.uid == uid && t == token {
			return &entity.LoginToken{UID: uid, Device: k.device, Token: t}, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *memStore) PutLoginToken(_ context.Context, uid int64, device, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("PutLoginToken"); err != nil {
		return "", err
	}
	k := pair{uid, device}
	if existing, ok := s.tokens[k]; ok {
		return existing, nil
	}
	s.tokens[k] = token
	return token, nil
}

func (s *memStore) called(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *memStore) setFail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *memStore) addDevice(uid int64, device string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[pair{uid, device}] = time.Unix(0, 0)
}
