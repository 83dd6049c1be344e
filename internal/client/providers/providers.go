// Package providers holds the backends behind the client's Auth and
// Database services. A Kind picks exactly one implementation at
// construction: KindRemote talks to the SimpleShare server, KindLocal is a
// placeholder that rejects every call with ErrUnsupported.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/simpleshare/internal/client/client"
	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

var ErrUnknownKind = errors.New("unknown provider kind")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRemote, KindLocal:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// AuthProvider signs users in and reports session changes.
type AuthProvider interface {
	SignIn(ctx context.Context, phoneNumber string, passcode []byte) (*models.User, error)
	SignOut(ctx context.Context) error
	CurrentUser() *models.User
	// OnAuthStateChanged calls fn with the current user right away and then
	// once per transition; nil means signed out.
	OnAuthStateChanged(fn func(*models.User)) (unsubscribe func())
}

// ShareHandlers receive listener events. Any field may be nil. OnSynced is
// called once, after the shares that existed when the listener started have
// been passed to OnAdd. OnError is called once if the listener stops on its
// own.
type ShareHandlers struct {
	OnAdd    func(models.Share)
	OnUpdate func(models.Share)
	OnRemove func(models.Share)
	OnSynced func()
	OnError  func(error)
}

// Listener is the handle returned by ListenShares.
type Listener interface {
	ID() int
}

// DatabaseProvider reads and writes the signed-in user's documents.
type DatabaseProvider interface {
	GetAccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error)
	SetAccountInfo(ctx context.Context, uid string, info models.AccountInfo) (bool, error)
	GetPublicInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error)
	SetPublicInfo(ctx context.Context, uid string, info models.PublicGeneralInfo) (bool, error)
	LookupUser(ctx context.Context, phoneNumber string) (*models.User, error)

	GetProfiles(ctx context.Context, uid string) ([]models.Profile, error)
	AddProfile(ctx context.Context, uid, name string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) (bool, error)

	SendShare(ctx context.Context, share models.Share) (*models.Share, error)
	DeleteShare(ctx context.Context, id string) (bool, error)
	ListenShares(ctx context.Context, uid string, h ShareHandlers) (Listener, error)
	RemoveListener(l Listener)

	UploadAttachment(ctx context.Context, fileName string, data []byte) (*models.Attachment, error)
	DownloadAttachment(ctx context.Context, share models.Share) ([]byte, error)
}

// Deps are what the remote providers need.
type Deps struct {
	Client client.Client
	HTTP   *http.Client
	Logger logging.Logger
}

func NewAuthProvider(kind Kind, deps Deps) (AuthProvider, error) {
	switch kind {
	case KindRemote:
		return NewRemoteAuth(deps.Client, deps.Logger), nil
	case KindLocal:
		return LocalAuth{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func NewDatabaseProvider(kind Kind, deps Deps) (DatabaseProvider, error) {
	switch kind {
	case KindRemote:
		return NewRemoteDatabase(deps.Client, deps.HTTP, deps.Logger), nil
	case KindLocal:
		return LocalDatabase{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
