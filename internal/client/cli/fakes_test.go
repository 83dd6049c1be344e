package cli

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/client/config"
	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/services"
	"github.com/dmitrijs2005/simpleshare/internal/client/store"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/stretchr/testify/require"
)

const testPasscode = "1234"

// fakeAuth knows users by phone number and accepts testPasscode only.
type fakeAuth struct {
	mu    sync.Mutex
	users map[string]models.User
	user  *models.User
	subs  []func(*models.User)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: make(map[string]models.User)}
}

func (f *fakeAuth) SignIn(ctx context.Context, phone string, passcode []byte) (*models.User, error) {
	if string(passcode) != testPasscode {
		return nil, &providers.AuthError{Code: providers.AuthInvalidCredentials}
	}
	f.mu.Lock()
	u, ok := f.users[phone]
	if !ok {
		u = models.User{UID: "uid-" + strings.TrimPrefix(phone, "+")}
		f.users[phone] = u
	}
	f.mu.Unlock()

	f.transition(&u)
	return &u, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.transition(nil)
	return nil
}

func (f *fakeAuth) CurrentUser() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeAuth) OnAuthStateChanged(fn func(*models.User)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	u := f.user
	f.mu.Unlock()
	fn(u)
	return func() {}
}

func (f *fakeAuth) transition(u *models.User) {
	f.mu.Lock()
	f.user = u
	subs := append([]func(*models.User){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(u)
	}
}

type fakeListener int

func (l fakeListener) ID() int { return int(l) }

// memDB is an in-memory DatabaseProvider.
type memDB struct {
	mu       sync.Mutex
	accounts map[string]models.AccountInfo
	public   map[string]models.PublicGeneralInfo
	profiles []models.Profile
	shares   []models.Share
	phones   map[string]models.User
	objects  map[string][]byte
	handlers providers.ShareHandlers
	listens  int
	removed  int
	next     int
}

func newMemDB() *memDB {
	return &memDB{
		accounts: make(map[string]models.AccountInfo),
		public:   make(map[string]models.PublicGeneralInfo),
		phones:   make(map[string]models.User),
		objects:  make(map[string][]byte),
	}
}

func notFound() error {
	return &providers.DatabaseError{Code: providers.DatabaseNotFound}
}

func (m *memDB) id(prefix string) string {
	m.next++
	return prefix + "-" + strconv.Itoa(m.next)
}

func (m *memDB) GetAccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.accounts[uid]
	if !ok {
		return nil, notFound()
	}
	return &v, nil
}

func (m *memDB) SetAccountInfo(ctx context.Context, uid string, info models.AccountInfo) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[uid] = info
	return true, nil
}

func (m *memDB) GetPublicInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.public[uid]
	if !ok {
		return nil, notFound()
	}
	return &v, nil
}

func (m *memDB) SetPublicInfo(ctx context.Context, uid string, info models.PublicGeneralInfo) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.public[uid] = info
	return true, nil
}

func (m *memDB) LookupUser(ctx context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.phones[phone]
	if !ok {
		return nil, notFound()
	}
	return &u, nil
}

func (m *memDB) GetProfiles(ctx context.Context, uid string) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Profile
	for _, p := range m.profiles {
		if p.OwnerUID == uid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memDB) AddProfile(ctx context.Context, uid, name string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Profile{ID: m.id("p"), OwnerUID: uid, Name: name}
	m.profiles = append(m.profiles, p)
	return &p, nil
}

func (m *memDB) DeleteProfile(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.profiles {
		if p.ID == id {
			m.profiles = append(m.profiles[:i], m.profiles[i+1:]...)
			return true, nil
		}
	}
	return false, notFound()
}

func (m *memDB) SendShare(ctx context.Context, sh models.Share) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh.ID = m.id("s")
	sh.CreatedAt = time.Now()
	m.shares = append(m.shares, sh)
	return &sh, nil
}

func (m *memDB) DeleteShare(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sh := range m.shares {
		if sh.ID == id {
			m.shares = append(m.shares[:i], m.shares[i+1:]...)
			return true, nil
		}
	}
	return false, notFound()
}

func (m *memDB) ListenShares(ctx context.Context, uid string, h providers.ShareHandlers) (providers.Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = h
	m.listens++
	return fakeListener(m.listens), nil
}

func (m *memDB) RemoveListener(l providers.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed++
}

func (m *memDB) UploadAttachment(ctx context.Context, fileName string, data []byte) (*models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.id("obj")
	m.objects[key] = bytes.Clone(data)
	return &models.Attachment{ObjectKey: key, FileName: fileName}, nil
}

func (m *memDB) DownloadAttachment(ctx context.Context, sh models.Share) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sh.Attachment == nil {
		return nil, notFound()
	}
	data, ok := m.objects[sh.Attachment.ObjectKey]
	if !ok {
		return nil, notFound()
	}
	return data, nil
}

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// lockedBuffer is written from the REPL, renderer and watcher goroutines.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

type testEnv struct {
	app    *App
	auth   *fakeAuth
	db     *memDB
	pinger *fakePinger
	out    *lockedBuffer
}

func newTestEnv(t *testing.T, input string) *testEnv {
	t.Helper()

	logger, err := logging.New("text", "error", io.Discard)
	require.NoError(t, err)

	env := &testEnv{
		auth:   newFakeAuth(),
		db:     newMemDB(),
		pinger: &fakePinger{},
		out:    &lockedBuffer{},
	}

	st := store.New()
	as := services.NewAuthService(providers.KindRemote, st, logger, func(providers.Kind) (providers.AuthProvider, error) {
		return env.auth, nil
	})
	ds := services.NewDatabaseService(providers.KindRemote, st, logger, func(providers.Kind) (providers.DatabaseProvider, error) {
		return env.db, nil
	})
	require.NoError(t, as.Init(context.Background()))
	require.NoError(t, ds.Init(context.Background()))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = t.TempDir()

	driver := toaster.NewDriver(st.Toaster(), logger, time.Hour)
	t.Cleanup(driver.Close)

	env.app = newApp(cfg, logger, st, as, ds, env.pinger, driver, strings.NewReader(input), env.out)
	return env
}

func stubPasscode(t *testing.T, passcode string) {
	t.Helper()
	old := getPasscode
	getPasscode = func(io.Writer) ([]byte, error) { return []byte(passcode), nil }
	t.Cleanup(func() { getPasscode = old })
}

// signIn signs in with the phone number typed on the first input line.
func (e *testEnv) signIn(t *testing.T) *models.User {
	t.Helper()
	stubPasscode(t, testPasscode)
	require.NoError(t, e.app.SignIn(context.Background()))
	u := e.app.store.User()
	require.NotNil(t, u)
	return u
}

func (e *testEnv) toastMessages() []string {
	var out []string
	for _, t := range e.app.store.Toaster().Toasts() {
		out = append(out, string(t.Kind)+": "+t.Message)
	}
	return out
}
