// Package refreshtokens stores the opaque refresh tokens issued at sign-in.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
