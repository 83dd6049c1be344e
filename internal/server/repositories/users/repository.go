package users

import (
	"context"

	"github.com/dmitrijs2005/simpleshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
