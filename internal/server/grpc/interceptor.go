package grpc

import (
	"context"
	"path"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey struct{}

// UIDFromContext returns the authenticated caller set by the interceptors.
func UIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxKey{}).(string)
	return uid, ok && uid != ""
}

var publicMethods = map[string]struct{}{
	wire.FullMethod(wire.MethodPing):         {},
	wire.FullMethod(wire.MethodGetSalt):      {},
	wire.FullMethod(wire.MethodSignIn):       {},
	wire.FullMethod(wire.MethodRefreshToken): {},
}

func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	uid, err := s.users.Authenticate(accessToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return context.WithValue(ctx, ctxKey{}, uid), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authedStream) Context() context.Context {
	return a.ctx
}

func (s *GRPCServer) streamAccessTokenInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := path.Base(info.FullMethod)
	code := status.Code(err)
	if s.metrics != nil {
		s.metrics.ObserveRPC(method, code, time.Since(start))
	}
	s.logger.Debug(ctx, "rpc", "method", method, "code", code.String(), "duration", time.Since(start))

	return resp, err
}
