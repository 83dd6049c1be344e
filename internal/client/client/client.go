package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/simpleshare/internal/wire"
)

// SignInResult is what a successful sign-in tells the caller.
type SignInResult struct {
	UID         string
	DisplayName string
	Created     bool
}

// Stream delivers change events from Listen. Cancel the context passed to
// Listen to end it. Recv errors are mapped like unary calls; a cancelled
// stream yields context.Canceled.
type Stream interface {
	Recv() (*wire.ChangeEvent, error)
}

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	GetSalt(ctx context.Context, phoneNumber string) ([]byte, error)
	SignIn(ctx context.Context, phoneNumber string, salt, verifier []byte) (*SignInResult, error)
	// SignOut forgets the session tokens. It never talks to the server.
	SignOut()
	SignedIn() bool
	LookupUser(ctx context.Context, phoneNumber string) (uid, displayName string, err error)

	GetDocument(ctx context.Context, collection, id string) (*wire.Document, error)
	SetDocument(ctx context.Context, collection, id string, data json.RawMessage) (*wire.Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	QueryDocuments(ctx context.Context, collection string, filters ...wire.Filter) ([]wire.Document, error)
	Listen(ctx context.Context, collection string, filters ...wire.Filter) (Stream, error)

	PresignUpload(ctx context.Context) (objectKey, url string, err error)
	PresignDownload(ctx context.Context, shareID string) (string, error)
}

var _ Client = (*GRPCClient)(nil)
