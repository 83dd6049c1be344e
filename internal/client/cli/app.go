package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/client/client"
	"github.com/dmitrijs2005/simpleshare/internal/client/config"
	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/simpleshare/internal/client/services"
	"github.com/dmitrijs2005/simpleshare/internal/client/store"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
	"github.com/dmitrijs2005/simpleshare/internal/filex"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

const (
	databaseFile    = "simpleshare.db"
	downloadsDir    = "downloads"
	transferTimeout = time.Minute
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger reports whether the server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	store  *store.Store
	auth   *services.AuthService
	db     *services.DatabaseService
	pinger Pinger
	driver *toaster.Driver
	reader *bufio.Reader
	out    *syncWriter

	mu        sync.Mutex
	mode      Mode
	listener  providers.Listener
	listenGen int

	// listenMu serializes starting and stopping the share listener.
	listenMu sync.Mutex

	closers   []func()
	closeOnce sync.Once
}

// NewApp opens the local database, restores persisted slices, connects the
// transport and initializes both service façades. Logs go to logOut; the
// shell talks to the user through in and out.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	kind, err := providers.ParseKind(c.ProviderKind)
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	st := store.New()
	persistor := store.NewPersistor(st, metadata.NewSQLiteRepository(db), c.PersistBlacklist, logger.With("module", "persist"))
	if err := persistor.Rehydrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rehydrate store: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := providers.Deps{
		Client: apiClient,
		HTTP:   &http.Client{Timeout: transferTimeout},
		Logger: logger.With("module", "providers"),
	}
	authService := services.NewAuthService(kind, st, logger, func(k providers.Kind) (providers.AuthProvider, error) {
		return providers.NewAuthProvider(k, deps)
	})
	dbService := services.NewDatabaseService(kind, st, logger, func(k providers.Kind) (providers.DatabaseProvider, error) {
		return providers.NewDatabaseProvider(k, deps)
	})

	for _, initFn := range []func(context.Context) error{authService.Init, dbService.Init} {
		if err := initFn(ctx); err != nil {
			_ = apiClient.Close()
			_ = db.Close()
			return nil, err
		}
	}

	driver := toaster.NewDriver(st.Toaster(), logger.With("module", "toaster"), c.ToastTick)

	a := newApp(c, logger, st, authService, dbService, apiClient, driver, in, out)

	persistor.Start(ctx)
	a.closers = append(a.closers,
		persistor.Stop,
		func() { _ = apiClient.Close() },
		func() { _ = db.Close() },
	)
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, st *store.Store, auth *services.AuthService,
	db *services.DatabaseService, pinger Pinger, driver *toaster.Driver, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		logger: logger,
		store:  st,
		auth:   auth,
		db:     db,
		pinger: pinger,
		driver: driver,
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
	}
}

// start hooks the driver, the toast renderer and the auth observer to the
// store. Everything it registers is undone by Close.
func (a *App) start() error {
	r := newToastRenderer(a.out)
	unsubRender := a.store.Subscribe(func(slice string) {
		if slice == store.SliceToaster {
			r.render(a.store.Toaster().Toasts())
		}
	})

	unsubDriver := a.store.Subscribe(func(slice string) {
		if slice == store.SliceToaster {
			a.driver.Notify()
		}
	})
	a.driver.Start()

	unsubAuth, err := a.auth.OnAuthStateChanged(func(u *models.User) {
		if u == nil {
			a.stopListening()
		}
	})
	if err != nil {
		unsubRender()
		unsubDriver()
		return err
	}

	a.closers = append([]func(){unsubRender, unsubDriver, unsubAuth, a.driver.Close}, a.closers...)
	return nil
}

// Run starts the background machinery and blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.Close()
	defer cancel()

	if err := a.start(); err != nil {
		return err
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.printf("Welcome to SimpleShare (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}

// Close stops the share listener, the toast driver and releases the
// transport and the local database.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.stopListening()
		if p, ok := a.db.Provider().(interface{ Close() }); ok {
			p.Close()
		}
		for _, fn := range a.closers {
			fn()
		}
	})
}

func (a *App) getStatus() string {
	var parts []string
	if u := a.store.User(); u != nil {
		parts = append(parts, userLabel(u))
	}
	if m := a.getMode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) isSignedIn() bool {
	return a.store.User() != nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// syncWriter serializes writes from the REPL, the renderer and the watcher.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
