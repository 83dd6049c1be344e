// Package services contains the client's Auth and Database façades. A
// façade owns one provider, built by Init from the configured kind, and
// copies every successful result into the central store so observers see
// it without extra plumbing. Provider errors are returned unchanged.
package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/store"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

// AuthFactory builds the auth provider for a kind.
type AuthFactory func(kind providers.Kind) (providers.AuthProvider, error)

type AuthService struct {
	kind    providers.Kind
	store   *store.Store
	logger  logging.Logger
	factory AuthFactory

	mu       sync.RWMutex
	provider providers.AuthProvider
}

func NewAuthService(kind providers.Kind, st *store.Store, logger logging.Logger, factory AuthFactory) *AuthService {
	return &AuthService{kind: kind, store: st, logger: logger, factory: factory}
}

// Init builds the provider. Later calls are no-ops.
func (s *AuthService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		s.logger.Info(ctx, "already initialized", "service", "AuthService")
		return nil
	}

	p, err := s.factory(s.kind)
	if err != nil {
		return err
	}
	s.provider = p
	s.logger.Debug(ctx, "auth provider ready", "kind", s.kind)
	return nil
}

// Provider returns the active provider, or nil before Init.
func (s *AuthService) Provider() providers.AuthProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

func (s *AuthService) get() (providers.AuthProvider, error) {
	if p := s.Provider(); p != nil {
		return p, nil
	}
	return nil, &NotInitializedError{Service: "AuthService"}
}

func (s *AuthService) SignIn(ctx context.Context, phoneNumber string, passcode []byte) (*models.User, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}

	u, err := p.SignIn(ctx, phoneNumber, passcode)
	if err != nil {
		return nil, err
	}

	s.store.SetUser(u)
	return u, nil
}

// SignOut ends the session and drops everything the store held for it.
func (s *AuthService) SignOut(ctx context.Context) error {
	p, err := s.get()
	if err != nil {
		return err
	}

	if err := p.SignOut(ctx); err != nil {
		return err
	}

	s.store.ClearSession()
	return nil
}

func (s *AuthService) CurrentUser() (*models.User, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	return p.CurrentUser(), nil
}

// OnAuthStateChanged forwards provider transitions to fn after copying the
// user into the store.
func (s *AuthService) OnAuthStateChanged(fn func(*models.User)) (func(), error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}

	return p.OnAuthStateChanged(func(u *models.User) {
		s.store.SetUser(u)
		if fn != nil {
			fn(u)
		}
	}), nil
}
