// Package server wires configuration, storage, services and transports into
// the SimpleShare backend process.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/changefeed"
	"github.com/dmitrijs2005/simpleshare/internal/server/config"
	gs "github.com/dmitrijs2005/simpleshare/internal/server/grpc"
	"github.com/dmitrijs2005/simpleshare/internal/server/metrics"
	"github.com/dmitrijs2005/simpleshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/simpleshare/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

const tokenPurgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hub         *changefeed.Hub
	metrics     *metrics.Metrics
	users       *services.UserService
	documents   *services.DocumentService
	attachments *services.AttachmentService
}

func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, out)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	presigner, err := services.NewS3Presigner(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	hub := changefeed.NewHub(c.ListenerBuffer, logger.With("module", "changefeed"))
	documents := services.NewDocumentService(db, rm, hub, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		hub:         hub,
		metrics:     metrics.New(hub.Len),
		users:       services.NewUserService(db, rm, c, logger),
		documents:   documents,
		attachments: services.NewAttachmentService(presigner, documents, c),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) purgeTokens(ctx context.Context) error {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := app.users.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "purge refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged refresh tokens", "count", n)
			}
		}
	}
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.metrics, app.users, app.documents, app.attachments)
		return s.Run(ctx)
	})

	// live Listen streams hold GracefulStop open until their feed closes
	g.Go(func() error {
		<-ctx.Done()
		app.hub.Close()
		return nil
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			router := metrics.NewRouter(app.metrics, app.db.PingContext)
			return metrics.NewServer(app.config.MetricsAddr, router, app.logger).Run(ctx)
		})
	}

	g.Go(func() error {
		return app.purgeTokens(ctx)
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
