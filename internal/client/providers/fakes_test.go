package providers

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/dmitrijs2005/simpleshare/internal/client/client"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"github.com/stretchr/testify/require"
)

// fakeClient keeps documents in memory and feeds Listen from a channel.
type fakeClient struct {
	mu        sync.Mutex
	docs      map[string]wire.Document
	signInErr error
	salt      []byte
	verifier  []byte
	signedOut int
	events    chan *wire.ChangeEvent
	streamErr chan error
	uploadURL string
	getURL    string
	lastQuery []wire.Filter
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		docs:      make(map[string]wire.Document),
		salt:      []byte("0123456789abcdef0123456789abcdef"),
		events:    make(chan *wire.ChangeEvent, 8),
		streamErr: make(chan error, 1),
	}
}

func docKey(collection, id string) string { return collection + "/" + id }

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) SignedIn() bool { return f.verifier != nil }

func (f *fakeClient) GetSalt(ctx context.Context, phone string) ([]byte, error) {
	return f.salt, nil
}

func (f *fakeClient) SignIn(ctx context.Context, phone string, salt, verifier []byte) (*client.SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.mu.Lock()
	f.verifier = verifier
	f.mu.Unlock()
	return &client.SignInResult{UID: "u-" + phone, DisplayName: "Ann"}, nil
}

func (f *fakeClient) SignOut() {
	f.mu.Lock()
	f.signedOut++
	f.mu.Unlock()
}

func (f *fakeClient) LookupUser(ctx context.Context, phone string) (string, string, error) {
	if phone != "+15550002" {
		return "", "", client.ErrNotFound
	}
	return "u2", "Bob", nil
}

func (f *fakeClient) GetDocument(ctx context.Context, collection, id string) (*wire.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &d, nil
}

func (f *fakeClient) SetDocument(ctx context.Context, collection, id string, data json.RawMessage) (*wire.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := wire.Document{Collection: collection, ID: id, Data: data, Version: f.docs[docKey(collection, id)].Version + 1}
	f.docs[docKey(collection, id)] = d
	return &d, nil
}

func (f *fakeClient) DeleteDocument(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[docKey(collection, id)]; !ok {
		return client.ErrNotFound
	}
	delete(f.docs, docKey(collection, id))
	return nil
}

func (f *fakeClient) QueryDocuments(ctx context.Context, collection string, filters ...wire.Filter) ([]wire.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = filters
	var out []wire.Document
	for _, d := range f.docs {
		if d.Collection != collection {
			continue
		}
		var fields map[string]any
		_ = json.Unmarshal(d.Data, &fields)
		match := true
		for _, flt := range filters {
			if fields[flt.Field] != flt.Value {
				match = false
			}
		}
		if match {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeStream struct {
	ctx context.Context
	f   *fakeClient
}

func (s *fakeStream) Recv() (*wire.ChangeEvent, error) {
	select {
	case <-s.ctx.Done():
		return nil, context.Canceled
	case err := <-s.f.streamErr:
		return nil, err
	case e := <-s.f.events:
		return e, nil
	}
}

func (f *fakeClient) Listen(ctx context.Context, collection string, filters ...wire.Filter) (client.Stream, error) {
	f.mu.Lock()
	f.lastQuery = filters
	f.mu.Unlock()
	return &fakeStream{ctx: ctx, f: f}, nil
}

func (f *fakeClient) PresignUpload(ctx context.Context) (string, string, error) {
	return "shares/u1/2026/10/k", f.uploadURL, nil
}

func (f *fakeClient) PresignDownload(ctx context.Context, shareID string) (string, error) {
	return f.getURL, nil
}

func newTestLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New("text", "error", io.Discard)
	require.NoError(t, err)
	return l
}
