package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status messages the client matches on.
const (
	MsgTokenExpired        = "token expired"
	MsgRefreshTokenExpired = "refresh token expired"
	MsgAccountDisabled     = "account disabled"
	MsgInvalidCredentials  = "invalid credentials"
)

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrAccountDisabled):
		return status.Error(codes.PermissionDenied, MsgAccountDisabled)
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "permission denied")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, MsgTokenExpired)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, MsgRefreshTokenExpired)
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, MsgInvalidCredentials)
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
