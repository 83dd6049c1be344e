package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/dbx"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/changefeed"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/repomanager"
)

const maxDocumentSize = 64 << 10

// DocumentService applies per-collection access rules on top of the
// documents repository and publishes every committed write to the hub.
//
//	accounts  read/write/delete by the uid equal to the document id
//	public    read by anyone signed in, write/delete by id == uid
//	profiles  read by anyone signed in, write/delete by owner_uid
//	shares    created by from_uid, read/delete by from_uid or to_uid
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hub         *changefeed.Hub
	logger      logging.Logger
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, hub *changefeed.Hub, logger logging.Logger) *DocumentService {
	return &DocumentService{db: db, repomanager: m, hub: hub, logger: logger}
}

func knownCollection(c string) bool {
	switch c {
	case common.CollectionAccounts, common.CollectionPublic, common.CollectionProfiles, common.CollectionShares:
		return true
	}
	return false
}

func (s *DocumentService) Get(ctx context.Context, uid, collection, id string) (*models.Document, error) {
	if !knownCollection(collection) || id == "" {
		return nil, common.ErrorValidation
	}

	doc, err := s.repomanager.Documents(s.db).Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if !canRead(uid, doc) {
		return nil, common.ErrorForbidden
	}
	return doc, nil
}

// Set writes data under (collection, id) and returns the stored document
// with its new version.
func (s *DocumentService) Set(ctx context.Context, uid, collection, id string, data json.RawMessage) (*models.Document, error) {
	if !knownCollection(collection) || id == "" || len(data) > maxDocumentSize {
		return nil, common.ErrorValidation
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: data must be a JSON object", common.ErrorValidation)
	}

	next := &models.Document{Collection: collection, ID: id, Data: data}

	var prev, saved *models.Document
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)

		var err error
		prev, err = repo.Get(ctx, collection, id)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			prev = nil
		}

		if err := checkWrite(uid, prev, next); err != nil {
			return err
		}

		saved, err = repo.Upsert(ctx, collection, id, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ctx, changefeed.Write{Doc: saved, Prev: prev})
	return saved, nil
}

func (s *DocumentService) Delete(ctx context.Context, uid, collection, id string) error {
	if !knownCollection(collection) || id == "" {
		return common.ErrorValidation
	}

	var removed *models.Document
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)

		doc, err := repo.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if !canDelete(uid, doc) {
			return common.ErrorForbidden
		}

		removed, err = repo.Delete(ctx, collection, id)
		return err
	})
	if err != nil {
		return err
	}

	s.hub.Publish(ctx, changefeed.Write{Doc: removed, Deleted: true})
	return nil
}

func (s *DocumentService) Query(ctx context.Context, uid, collection string, filters []models.Filter) ([]*models.Document, error) {
	if err := checkQuery(uid, collection, filters); err != nil {
		return nil, err
	}
	return s.repomanager.Documents(s.db).Query(ctx, collection, filters)
}

// Listen subscribes to changes and returns the current matching set. The
// subscription is taken before the snapshot is read so no write falls in
// between; a listener may therefore see a document in the snapshot and
// again as an event. The caller must Unsubscribe.
func (s *DocumentService) Listen(ctx context.Context, uid, collection string, filters []models.Filter) ([]*models.Document, *changefeed.Subscription, error) {
	if err := checkQuery(uid, collection, filters); err != nil {
		return nil, nil, err
	}

	sub := s.hub.Subscribe(collection, filters)

	docs, err := s.repomanager.Documents(s.db).Query(ctx, collection, filters)
	if err != nil {
		s.hub.Unsubscribe(sub)
		return nil, nil, err
	}
	return docs, sub, nil
}

func (s *DocumentService) Unsubscribe(sub *changefeed.Subscription) {
	s.hub.Unsubscribe(sub)
}

func canRead(uid string, doc *models.Document) bool {
	switch doc.Collection {
	case common.CollectionAccounts:
		return doc.ID == uid
	case common.CollectionShares:
		return doc.StringField("from_uid") == uid || doc.StringField("to_uid") == uid
	}
	return true
}

func canDelete(uid string, doc *models.Document) bool {
	switch doc.Collection {
	case common.CollectionAccounts, common.CollectionPublic:
		return doc.ID == uid
	case common.CollectionProfiles:
		return doc.StringField("owner_uid") == uid
	case common.CollectionShares:
		return doc.StringField("from_uid") == uid || doc.StringField("to_uid") == uid
	}
	return false
}

func checkWrite(uid string, prev, next *models.Document) error {
	switch next.Collection {
	case common.CollectionAccounts, common.CollectionPublic:
		if next.ID != uid {
			return common.ErrorForbidden
		}

	case common.CollectionProfiles:
		if next.StringField("owner_uid") != uid {
			return common.ErrorForbidden
		}
		if prev != nil && prev.StringField("owner_uid") != uid {
			return common.ErrorForbidden
		}

	case common.CollectionShares:
		if next.StringField("from_uid") != uid || next.StringField("to_uid") == "" {
			return common.ErrorForbidden
		}
		if prev != nil && prev.StringField("from_uid") != uid {
			return common.ErrorForbidden
		}
		if key := attachmentKey(next); key != "" && !strings.HasPrefix(key, storagePrefix(uid)) {
			return fmt.Errorf("%w: attachment belongs to another user", common.ErrorForbidden)
		}
	}
	return nil
}

// checkQuery allows listing public info and profiles freely; shares must be
// narrowed to the caller as sender or recipient; accounts are never listed.
func checkQuery(uid, collection string, filters []models.Filter) error {
	if !knownCollection(collection) {
		return common.ErrorValidation
	}

	switch collection {
	case common.CollectionAccounts:
		return common.ErrorForbidden
	case common.CollectionShares:
		for _, f := range filters {
			if (f.Field == "from_uid" || f.Field == "to_uid") && f.Value == uid {
				return nil
			}
		}
		return common.ErrorForbidden
	}
	return nil
}

func attachmentKey(doc *models.Document) string {
	att, _ := doc.Fields()["attachment"].(map[string]any)
	key, _ := att["object_key"].(string)
	return key
}
