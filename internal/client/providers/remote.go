package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/client/client"
	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/cryptox"
	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/netx"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"github.com/google/uuid"
)

func authError(err error) error {
	code := AuthUnexpected
	switch {
	case errors.Is(err, context.Canceled):
		code = AuthCancelled
	case errors.Is(err, client.ErrUnauthorized):
		code = AuthInvalidCredentials
	case errors.Is(err, common.ErrAccountDisabled):
		code = AuthAccountDisabled
	}
	return &AuthError{Code: code, Err: err}
}

func dbError(err error) error {
	if errors.Is(err, client.ErrNotFound) {
		return &DatabaseError{Code: DatabaseNotFound, Err: err}
	}
	return &DatabaseError{Code: DatabaseUnexpected, Err: err}
}

// RemoteAuth signs in against the server. The passcode never leaves the
// process: only a verifier derived from it with the server-issued salt is
// sent.
type RemoteAuth struct {
	client client.Client
	logger logging.Logger

	mu   sync.Mutex
	user *models.User
	subs map[int]func(*models.User)
	next int
}

func NewRemoteAuth(c client.Client, logger logging.Logger) *RemoteAuth {
	return &RemoteAuth{client: c, logger: logger, subs: make(map[int]func(*models.User))}
}

func (a *RemoteAuth) SignIn(ctx context.Context, phoneNumber string, passcode []byte) (*models.User, error) {
	salt, err := a.client.GetSalt(ctx, phoneNumber)
	if err != nil {
		return nil, authError(err)
	}

	key := cryptox.DeriveKey(passcode, salt)
	defer common.WipeByteArray(key)

	res, err := a.client.SignIn(ctx, phoneNumber, salt, cryptox.MakeVerifier(key))
	if err != nil {
		return nil, authError(err)
	}

	if res.Created {
		a.logger.Info(ctx, "account created", "uid", res.UID)
	}

	u := &models.User{UID: res.UID, DisplayName: res.DisplayName}
	a.transition(u)
	return u, nil
}

func (a *RemoteAuth) SignOut(ctx context.Context) error {
	a.client.SignOut()
	a.transition(nil)
	return nil
}

func (a *RemoteAuth) CurrentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *RemoteAuth) OnAuthStateChanged(fn func(*models.User)) func() {
	a.mu.Lock()
	id := a.next
	a.next++
	a.subs[id] = fn
	a.mu.Unlock()

	fn(a.CurrentUser())

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// transition records u and notifies subscribers when the signed-in uid
// changes.
func (a *RemoteAuth) transition(u *models.User) {
	a.mu.Lock()
	same := (a.user == nil && u == nil) || (a.user != nil && u != nil && a.user.UID == u.UID)
	a.user = u
	var fns []func(*models.User)
	if !same {
		for _, fn := range a.subs {
			fns = append(fns, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		v := *u
		fn(&v)
	}
}

// RemoteDatabase keeps SimpleShare data in server documents:
//
//	accounts/<uid>    AccountInfo
//	public/<uid>      PublicGeneralInfo
//	profiles/<id>     Profile
//	shares/<id>       Share
type RemoteDatabase struct {
	client client.Client
	http   *http.Client
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]*shareListener
	next      int
}

func NewRemoteDatabase(c client.Client, httpClient *http.Client, logger logging.Logger) *RemoteDatabase {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteDatabase{
		client:    c,
		http:      httpClient,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]*shareListener),
	}
}

func getDoc[T any](ctx context.Context, c client.Client, collection, id string) (*T, error) {
	doc, err := c.GetDocument(ctx, collection, id)
	if err != nil {
		return nil, dbError(err)
	}
	v, err := models.Decode[T](doc.Data)
	if err != nil {
		return nil, dbError(err)
	}
	return &v, nil
}

func setDoc(ctx context.Context, c client.Client, collection, id string, v any) (*wire.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, dbError(err)
	}
	doc, err := c.SetDocument(ctx, collection, id, data)
	if err != nil {
		return nil, dbError(err)
	}
	return doc, nil
}

func (d *RemoteDatabase) GetAccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error) {
	return getDoc[models.AccountInfo](ctx, d.client, common.CollectionAccounts, uid)
}

func (d *RemoteDatabase) SetAccountInfo(ctx context.Context, uid string, info models.AccountInfo) (bool, error) {
	if _, err := setDoc(ctx, d.client, common.CollectionAccounts, uid, info); err != nil {
		return false, err
	}
	return true, nil
}

func (d *RemoteDatabase) GetPublicInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error) {
	return getDoc[models.PublicGeneralInfo](ctx, d.client, common.CollectionPublic, uid)
}

func (d *RemoteDatabase) SetPublicInfo(ctx context.Context, uid string, info models.PublicGeneralInfo) (bool, error) {
	if _, err := setDoc(ctx, d.client, common.CollectionPublic, uid, info); err != nil {
		return false, err
	}
	return true, nil
}

func (d *RemoteDatabase) LookupUser(ctx context.Context, phoneNumber string) (*models.User, error) {
	uid, name, err := d.client.LookupUser(ctx, phoneNumber)
	if err != nil {
		return nil, dbError(err)
	}
	return &models.User{UID: uid, DisplayName: name}, nil
}

func decodeProfile(doc wire.Document) (models.Profile, error) {
	p, err := models.Decode[models.Profile](doc.Data)
	p.ID = doc.ID
	return p, err
}

func (d *RemoteDatabase) GetProfiles(ctx context.Context, uid string) ([]models.Profile, error) {
	docs, err := d.client.QueryDocuments(ctx, common.CollectionProfiles, wire.Filter{Field: "owner_uid", Value: uid})
	if err != nil {
		return nil, dbError(err)
	}

	out := make([]models.Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProfile(doc)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *RemoteDatabase) AddProfile(ctx context.Context, uid, name string) (*models.Profile, error) {
	doc, err := setDoc(ctx, d.client, common.CollectionProfiles, uuid.NewString(), models.Profile{OwnerUID: uid, Name: name})
	if err != nil {
		return nil, err
	}
	p, err := decodeProfile(*doc)
	if err != nil {
		return nil, dbError(err)
	}
	return &p, nil
}

func (d *RemoteDatabase) DeleteProfile(ctx context.Context, id string) (bool, error) {
	if err := d.client.DeleteDocument(ctx, common.CollectionProfiles, id); err != nil {
		return false, dbError(err)
	}
	return true, nil
}

func decodeShare(doc wire.Document) (models.Share, error) {
	s, err := models.Decode[models.Share](doc.Data)
	s.ID = doc.ID
	return s, err
}

// SendShare stores share under a fresh id unless it already has one.
func (d *RemoteDatabase) SendShare(ctx context.Context, share models.Share) (*models.Share, error) {
	id := share.ID
	if id == "" {
		id = uuid.NewString()
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = d.now().UTC()
	}
	share.ID = ""

	doc, err := setDoc(ctx, d.client, common.CollectionShares, id, share)
	if err != nil {
		return nil, err
	}
	out, err := decodeShare(*doc)
	if err != nil {
		return nil, dbError(err)
	}
	return &out, nil
}

func (d *RemoteDatabase) DeleteShare(ctx context.Context, id string) (bool, error) {
	if err := d.client.DeleteDocument(ctx, common.CollectionShares, id); err != nil {
		return false, dbError(err)
	}
	return true, nil
}

type shareListener struct {
	id     int
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *shareListener) ID() int {
	return l.id
}

// ListenShares streams shares addressed to uid. Existing shares arrive
// first through OnAdd, followed by OnSynced. Handlers run on the listener's goroutine and must not
// call RemoveListener for their own listener.
func (d *RemoteDatabase) ListenShares(ctx context.Context, uid string, h ShareHandlers) (Listener, error) {
	lctx, cancel := context.WithCancel(ctx)

	stream, err := d.client.Listen(lctx, common.CollectionShares, wire.Filter{Field: "to_uid", Value: uid})
	if err != nil {
		cancel()
		return nil, dbError(err)
	}

	d.mu.Lock()
	l := &shareListener{id: d.next, cancel: cancel, done: make(chan struct{})}
	d.next++
	d.listeners[l.id] = l
	d.mu.Unlock()

	go d.pump(lctx, l, stream, h)

	return l, nil
}

func (d *RemoteDatabase) pump(ctx context.Context, l *shareListener, stream client.Stream, h ShareHandlers) {
	defer close(l.done)

	for {
		e, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Warn(ctx, "share listener stopped", "error", err)
			d.forget(l.id)
			l.cancel()
			if h.OnError != nil {
				h.OnError(dbError(err))
			}
			return
		}

		if e.Type == wire.ChangeSynced {
			if h.OnSynced != nil {
				h.OnSynced()
			}
			continue
		}

		share, err := decodeShare(e.Document)
		if err != nil {
			d.logger.Warn(ctx, "skip undecodable share", "id", e.Document.ID, "error", err)
			continue
		}

		var fn func(models.Share)
		switch e.Type {
		case wire.ChangeAdded:
			fn = h.OnAdd
		case wire.ChangeModified:
			fn = h.OnUpdate
		case wire.ChangeRemoved:
			fn = h.OnRemove
		}
		if fn != nil {
			fn(share)
		}
	}
}

func (d *RemoteDatabase) forget(id int) *shareListener {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.listeners[id]
	delete(d.listeners, id)
	return l
}

// RemoveListener stops l and waits for its goroutine. Unknown or already
// stopped listeners are ignored.
func (d *RemoteDatabase) RemoveListener(l Listener) {
	if l == nil {
		return
	}
	sl := d.forget(l.ID())
	if sl == nil {
		return
	}
	sl.cancel()
	<-sl.done
}

// Close stops every listener.
func (d *RemoteDatabase) Close() {
	d.mu.Lock()
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	for _, id := range ids {
		d.RemoveListener(&shareListener{id: id})
	}
}

// UploadAttachment seals data with a fresh key and uploads the ciphertext.
// The returned attachment, key included, goes into the share document, so
// the sealing only keeps the object store from holding plaintext. Anyone
// who can read the share document, the server included, can open the file.
func (d *RemoteDatabase) UploadAttachment(ctx context.Context, fileName string, data []byte) (*models.Attachment, error) {
	sealed, err := cryptox.Seal(data)
	if err != nil {
		return nil, dbError(err)
	}

	key, url, err := d.client.PresignUpload(ctx)
	if err != nil {
		return nil, dbError(err)
	}

	if err := netx.Upload(ctx, d.http, url, sealed.Ciphertext); err != nil {
		return nil, dbError(err)
	}

	return &models.Attachment{ObjectKey: key, FileName: fileName, Key: sealed.Key, Nonce: sealed.Nonce}, nil
}

func (d *RemoteDatabase) DownloadAttachment(ctx context.Context, share models.Share) ([]byte, error) {
	if share.Attachment == nil {
		return nil, &DatabaseError{Code: DatabaseNotFound, Err: errors.New("share has no attachment")}
	}

	url, err := d.client.PresignDownload(ctx, share.ID)
	if err != nil {
		return nil, dbError(err)
	}

	data, err := netx.Download(ctx, d.http, url)
	if err != nil {
		return nil, dbError(err)
	}

	plain, err := cryptox.Open(data, share.Attachment.Key, share.Attachment.Nonce)
	if err != nil {
		return nil, dbError(err)
	}
	return plain, nil
}
