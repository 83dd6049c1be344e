package providers

import (
	"context"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
)

// LocalAuth is the not-yet-built on-device identity provider.
type LocalAuth struct{}

func unsupportedAuth() error {
	return &AuthError{Code: AuthUnexpected, Err: ErrUnsupported}
}

func (LocalAuth) SignIn(context.Context, string, []byte) (*models.User, error) {
	return nil, unsupportedAuth()
}

func (LocalAuth) SignOut(context.Context) error {
	return unsupportedAuth()
}

func (LocalAuth) CurrentUser() *models.User {
	return nil
}

func (LocalAuth) OnAuthStateChanged(fn func(*models.User)) func() {
	fn(nil)
	return func() {}
}

// LocalDatabase is the not-yet-built on-device document store.
type LocalDatabase struct{}

func unsupportedDB() error {
	return &DatabaseError{Code: DatabaseUnexpected, Err: ErrUnsupported}
}

func (LocalDatabase) GetAccountInfo(context.Context, string) (*models.AccountInfo, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) SetAccountInfo(context.Context, string, models.AccountInfo) (bool, error) {
	return false, unsupportedDB()
}

func (LocalDatabase) GetPublicInfo(context.Context, string) (*models.PublicGeneralInfo, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) SetPublicInfo(context.Context, string, models.PublicGeneralInfo) (bool, error) {
	return false, unsupportedDB()
}

func (LocalDatabase) LookupUser(context.Context, string) (*models.User, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) GetProfiles(context.Context, string) ([]models.Profile, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) AddProfile(context.Context, string, string) (*models.Profile, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) DeleteProfile(context.Context, string) (bool, error) {
	return false, unsupportedDB()
}

func (LocalDatabase) SendShare(context.Context, models.Share) (*models.Share, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) DeleteShare(context.Context, string) (bool, error) {
	return false, unsupportedDB()
}

func (LocalDatabase) ListenShares(context.Context, string, ShareHandlers) (Listener, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) RemoveListener(Listener) {}

func (LocalDatabase) UploadAttachment(context.Context, string, []byte) (*models.Attachment, error) {
	return nil, unsupportedDB()
}

func (LocalDatabase) DownloadAttachment(context.Context, models.Share) ([]byte, error) {
	return nil, unsupportedDB()
}
