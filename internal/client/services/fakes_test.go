package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	user    *models.User
	err     error
	signOut int
	subs    []func(*models.User)
}

func (f *fakeAuth) SignIn(ctx context.Context, phone string, passcode []byte) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.signOut++
	return f.err
}

func (f *fakeAuth) CurrentUser() *models.User { return f.user }

func (f *fakeAuth) OnAuthStateChanged(fn func(*models.User)) func() {
	f.subs = append(f.subs, fn)
	fn(f.user)
	return func() {}
}

// fakeDB answers from its fields; err, when set, fails every call.
type fakeDB struct {
	err      error
	account  *models.AccountInfo
	public   *models.PublicGeneralInfo
	profiles []models.Profile
	share    *models.Share
	handlers providers.ShareHandlers
	removed  []providers.Listener
	calls    int
}

type fakeListener int

func (l fakeListener) ID() int { return int(l) }

func (f *fakeDB) GetAccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error) {
	f.calls++
	return f.account, f.err
}

func (f *fakeDB) SetAccountInfo(ctx context.Context, uid string, info models.AccountInfo) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeDB) GetPublicInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error) {
	f.calls++
	return f.public, f.err
}

func (f *fakeDB) SetPublicInfo(ctx context.Context, uid string, info models.PublicGeneralInfo) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeDB) LookupUser(ctx context.Context, phone string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{UID: "u2", DisplayName: "Bob"}, nil
}

func (f *fakeDB) GetProfiles(ctx context.Context, uid string) ([]models.Profile, error) {
	f.calls++
	return f.profiles, f.err
}

func (f *fakeDB) AddProfile(ctx context.Context, uid, name string) (*models.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Profile{ID: "p-" + name, OwnerUID: uid, Name: name}, nil
}

func (f *fakeDB) DeleteProfile(ctx context.Context, id string) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeDB) SendShare(ctx context.Context, share models.Share) (*models.Share, error) {
	f.calls++
	return f.share, f.err
}

func (f *fakeDB) DeleteShare(ctx context.Context, id string) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeDB) ListenShares(ctx context.Context, uid string, h providers.ShareHandlers) (providers.Listener, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.handlers = h
	return fakeListener(1), nil
}

func (f *fakeDB) RemoveListener(l providers.Listener) {
	f.calls++
	f.removed = append(f.removed, l)
}

func (f *fakeDB) UploadAttachment(ctx context.Context, fileName string, data []byte) (*models.Attachment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Attachment{ObjectKey: "k", FileName: fileName}, nil
}

func (f *fakeDB) DownloadAttachment(ctx context.Context, share models.Share) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("data"), nil
}

func newLogger(t *testing.T, buf *bytes.Buffer) logging.Logger {
	t.Helper()
	l, err := logging.New("text", "debug", buf)
	require.NoError(t, err)
	return l
}
