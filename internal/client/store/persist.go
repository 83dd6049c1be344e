package store

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/simpleshare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

const keyPrefix = "store/"

// DefaultBlacklist keeps everything but preferences out of the local
// database.
var DefaultBlacklist = []string{SliceToaster, SliceAccount, SliceAuth, SliceProfile, SliceShare}

// Persistor mirrors non-blacklisted slices into the metadata table and loads
// them back on start.
type Persistor struct {
	store     *Store
	repo      metadata.Repository
	logger    logging.Logger
	blacklist map[string]struct{}

	unsubscribe func()
}

func NewPersistor(st *Store, repo metadata.Repository, blacklist []string, logger logging.Logger) *Persistor {
	bl := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		bl[name] = struct{}{}
	}
	return &Persistor{store: st, repo: repo, logger: logger, blacklist: bl}
}

func (p *Persistor) persisted(slice string) bool {
	_, skip := p.blacklist[slice]
	return !skip
}

// Rehydrate loads every stored slice that is not blacklisted. Entries that
// fail to decode are logged and skipped.
func (p *Persistor) Rehydrate(ctx context.Context) error {
	stored, err := p.repo.List(ctx, keyPrefix)
	if err != nil {
		return err
	}

	for key, data := range stored {
		slice := strings.TrimPrefix(key, keyPrefix)
		if !p.persisted(slice) {
			continue
		}
		if err := p.store.LoadSlice(slice, data); err != nil {
			p.logger.Warn(ctx, "skip stored slice", "slice", slice, "error", err)
			continue
		}
		p.logger.Debug(ctx, "slice rehydrated", "slice", slice)
	}
	return nil
}

// Start saves a slice every time it changes until Stop is called. ctx is
// used for the database writes.
func (p *Persistor) Start(ctx context.Context) {
	p.unsubscribe = p.store.Subscribe(func(slice string) {
		if !p.persisted(slice) {
			return
		}
		if err := p.Save(ctx, slice); err != nil {
			p.logger.Error(ctx, "persist slice", "slice", slice, "error", err)
		}
	})
}

func (p *Persistor) Stop() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Save writes the current value of one slice.
func (p *Persistor) Save(ctx context.Context, slice string) error {
	data, err := p.store.MarshalSlice(slice)
	if err != nil {
		return err
	}
	return p.repo.Set(ctx, keyPrefix+slice, data)
}
