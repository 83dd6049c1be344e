package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/store"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

// DatabaseFactory builds the database provider for a kind.
type DatabaseFactory func(kind providers.Kind) (providers.DatabaseProvider, error)

type DatabaseService struct {
	kind    providers.Kind
	store   *store.Store
	logger  logging.Logger
	factory DatabaseFactory

	mu       sync.RWMutex
	provider providers.DatabaseProvider
}

func NewDatabaseService(kind providers.Kind, st *store.Store, logger logging.Logger, factory DatabaseFactory) *DatabaseService {
	return &DatabaseService{kind: kind, store: st, logger: logger, factory: factory}
}

// Init builds the provider. Later calls are no-ops.
func (s *DatabaseService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		s.logger.Info(ctx, "already initialized", "service", "DatabaseService")
		return nil
	}

	p, err := s.factory(s.kind)
	if err != nil {
		return err
	}
	s.provider = p
	s.logger.Debug(ctx, "database provider ready", "kind", s.kind)
	return nil
}

// Provider returns the active provider, or nil before Init.
func (s *DatabaseService) Provider() providers.DatabaseProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

func (s *DatabaseService) get() (providers.DatabaseProvider, error) {
	if p := s.Provider(); p != nil {
		return p, nil
	}
	return nil, &NotInitializedError{Service: "DatabaseService"}
}

func (s *DatabaseService) GetAccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	info, err := p.GetAccountInfo(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.store.SetAccountInfo(*info)
	return info, nil
}

func (s *DatabaseService) SetAccountInfo(ctx context.Context, uid string, info models.AccountInfo) (bool, error) {
	p, err := s.get()
	if err != nil {
		return false, err
	}
	ok, err := p.SetAccountInfo(ctx, uid, info)
	if err != nil {
		return ok, err
	}
	if ok {
		s.store.SetAccountInfo(info)
	}
	return ok, nil
}

func (s *DatabaseService) GetPublicInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	info, err := p.GetPublicInfo(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.store.SetPublicInfo(*info)
	return info, nil
}

func (s *DatabaseService) SetPublicInfo(ctx context.Context, uid string, info models.PublicGeneralInfo) (bool, error) {
	p, err := s.get()
	if err != nil {
		return false, err
	}
	ok, err := p.SetPublicInfo(ctx, uid, info)
	if err != nil {
		return ok, err
	}
	if ok {
		s.store.SetPublicInfo(info)
	}
	return ok, nil
}

// LookupUser resolves a phone number. Nothing is stored.
func (s *DatabaseService) LookupUser(ctx context.Context, phoneNumber string) (*models.User, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	return p.LookupUser(ctx, phoneNumber)
}

func (s *DatabaseService) GetProfiles(ctx context.Context, uid string) ([]models.Profile, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	profiles, err := p.GetProfiles(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.store.SetProfiles(profiles)
	return profiles, nil
}

func (s *DatabaseService) AddProfile(ctx context.Context, uid, name string) (*models.Profile, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	profile, err := p.AddProfile(ctx, uid, name)
	if err != nil {
		return nil, err
	}
	s.store.UpsertProfile(*profile)
	return profile, nil
}

func (s *DatabaseService) DeleteProfile(ctx context.Context, id string) (bool, error) {
	p, err := s.get()
	if err != nil {
		return false, err
	}
	ok, err := p.DeleteProfile(ctx, id)
	if err != nil {
		return ok, err
	}
	if ok {
		s.store.RemoveProfile(id)
	}
	return ok, nil
}

// SendShare stores an outgoing share. The share slice only tracks shares
// addressed to the user, so nothing is mirrored here.
func (s *DatabaseService) SendShare(ctx context.Context, share models.Share) (*models.Share, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	return p.SendShare(ctx, share)
}

func (s *DatabaseService) DeleteShare(ctx context.Context, id string) (bool, error) {
	p, err := s.get()
	if err != nil {
		return false, err
	}
	ok, err := p.DeleteShare(ctx, id)
	if err != nil {
		return ok, err
	}
	if ok {
		s.store.RemoveShare(id)
	}
	return ok, nil
}

// ListenShares keeps the share slice in step with the shares addressed to
// uid and then calls h.
func (s *DatabaseService) ListenShares(ctx context.Context, uid string, h providers.ShareHandlers) (providers.Listener, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}

	mirrored := providers.ShareHandlers{
		OnAdd: func(sh models.Share) {
			s.store.UpsertShare(sh)
			if h.OnAdd != nil {
				h.OnAdd(sh)
			}
		},
		OnUpdate: func(sh models.Share) {
			s.store.UpsertShare(sh)
			if h.OnUpdate != nil {
				h.OnUpdate(sh)
			}
		},
		OnRemove: func(sh models.Share) {
			s.store.RemoveShare(sh.ID)
			if h.OnRemove != nil {
				h.OnRemove(sh)
			}
		},
		OnSynced: h.OnSynced,
		OnError:  h.OnError,
	}

	return p.ListenShares(ctx, uid, mirrored)
}

func (s *DatabaseService) RemoveListener(l providers.Listener) error {
	p, err := s.get()
	if err != nil {
		return err
	}
	p.RemoveListener(l)
	return nil
}

func (s *DatabaseService) UploadAttachment(ctx context.Context, fileName string, data []byte) (*models.Attachment, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	return p.UploadAttachment(ctx, fileName, data)
}

func (s *DatabaseService) DownloadAttachment(ctx context.Context, share models.Share) ([]byte, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}
	return p.DownloadAttachment(ctx, share)
}
