package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/dbx"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/documents"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New("text", "error", io.Discard)
	require.NoError(t, err)
	return l
}

type fakeUsersRepo struct {
	mu        sync.Mutex
	byPhone   map[string]*models.User
	nextID    int
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byPhone: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byPhone[u.PhoneNumber]; ok {
		return nil, users.ErrAlreadyExists
	}
	f.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("u%d", f.nextID)
	cp.CreatedAt = time.Now()
	f.byPhone[u.PhoneNumber] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byPhone[phone]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byPhone {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byPhone {
		if u.ID == id {
			u.Disabled = disabled
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]*models.RefreshToken
	createErr error
	deleteErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, rt := range f.tokens {
		if rt.Expires.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

type fakeDocumentsRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newFakeDocumentsRepo() *fakeDocumentsRepo {
	return &fakeDocumentsRepo{docs: map[string]*models.Document{}}
}

func docKey(collection, id string) string { return collection + "/" + id }

func (f *fakeDocumentsRepo) put(collection, id string, data any) {
	b, _ := json.Marshal(data)
	f.docs[docKey(collection, id)] = &models.Document{Collection: collection, ID: id, Data: b, Version: 1}
}

func (f *fakeDocumentsRepo) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocumentsRepo) Upsert(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		d = &models.Document{Collection: collection, ID: id, CreatedAt: now}
		f.docs[docKey(collection, id)] = d
	}
	d.Data = data
	d.Version++
	d.UpdatedAt = now
	cp := *d
	return &cp, nil
}

func (f *fakeDocumentsRepo) Delete(ctx context.Context, collection, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.docs, docKey(collection, id))
	return d, nil
}

func (f *fakeDocumentsRepo) Query(ctx context.Context, collection string, filters []models.Filter) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.Matches(collection, filters) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *fakeDocumentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo(), d: newFakeDocumentsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.u }

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }

func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository { return m.d }
