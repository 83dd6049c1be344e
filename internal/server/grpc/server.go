// Package grpc serves the SimpleShare wire service on top of the server
// services.
package grpc

import (
	"context"
	"encoding/json"
	"net"

	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/changefeed"
	"github.com/dmitrijs2005/simpleshare/internal/server/metrics"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/dmitrijs2005/simpleshare/internal/server/services"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"google.golang.org/grpc"
)

type Users interface {
	GetSalt(ctx context.Context, phone string) ([]byte, error)
	SignIn(ctx context.Context, phone string, salt, verifier []byte) (*services.SignInResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	LookupUser(ctx context.Context, phone string) (*models.User, string, error)
	Authenticate(token string) (string, error)
}

type Documents interface {
	Get(ctx context.Context, uid, collection, id string) (*models.Document, error)
	Set(ctx context.Context, uid, collection, id string, data json.RawMessage) (*models.Document, error)
	Delete(ctx context.Context, uid, collection, id string) error
	Query(ctx context.Context, uid, collection string, filters []models.Filter) ([]*models.Document, error)
	Listen(ctx context.Context, uid, collection string, filters []models.Filter) ([]*models.Document, *changefeed.Subscription, error)
	Unsubscribe(sub *changefeed.Subscription)
}

type Attachments interface {
	PresignUpload(ctx context.Context, uid string) (string, string, error)
	PresignDownload(ctx context.Context, uid, shareID string) (string, error)
}

type GRPCServer struct {
	wire.UnimplementedServer
	address     string
	users       Users
	documents   Documents
	attachments Attachments
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, m *metrics.Metrics, us Users, ds Documents, as Attachments) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		metrics:     m,
		users:       us,
		documents:   ds,
		attachments: as,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	wire.RegisterServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
