package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// saltTimeout bounds GetSalt, which runs before the user is asked anything
// else and should fail fast when the server is away.
const saltTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	client      *wire.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	s.mu.Unlock()
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, _ := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx); rerr != nil {
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// streamAccessTokenInterceptor only injects the token. An expired token
// surfaces from Stream.Recv as ErrUnauthorized and the caller reopens the
// stream after any unary call has refreshed the session.
func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrNotSignedIn
	}

	resp, err := s.client.RefreshToken(ctx, &wire.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// NewGRPCClient creates a client for endpointURL. The connection is
// established lazily on the first call. Extra dial options are appended to
// the defaults; tests use them to dial an in-memory listener.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, dialOpts: opts}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = wire.NewClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &wire.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, phoneNumber string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, saltTimeout)
	defer cancel()

	resp, err := s.client.GetSalt(ctx, &wire.GetSaltRequest{PhoneNumber: phoneNumber})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Salt, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, phoneNumber string, salt, verifier []byte) (*SignInResult, error) {
	req := &wire.SignInRequest{PhoneNumber: phoneNumber, Salt: salt, Verifier: verifier}

	resp, err := s.client.SignIn(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)

	return &SignInResult{UID: resp.UID, DisplayName: resp.DisplayName, Created: resp.Created}, nil
}

func (s *GRPCClient) SignOut() {
	s.setTokens("", "")
}

func (s *GRPCClient) SignedIn() bool {
	_, refresh := s.tokens()
	return refresh != ""
}

func (s *GRPCClient) LookupUser(ctx context.Context, phoneNumber string) (string, string, error) {
	resp, err := s.client.LookupUser(ctx, &wire.LookupUserRequest{PhoneNumber: phoneNumber})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.UID, resp.DisplayName, nil
}

func (s *GRPCClient) GetDocument(ctx context.Context, collection, id string) (*wire.Document, error) {
	resp, err := s.client.GetDocument(ctx, &wire.GetDocumentRequest{Collection: collection, ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Document, nil
}

func (s *GRPCClient) SetDocument(ctx context.Context, collection, id string, data json.RawMessage) (*wire.Document, error) {
	resp, err := s.client.SetDocument(ctx, &wire.SetDocumentRequest{Collection: collection, ID: id, Data: data})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Document, nil
}

func (s *GRPCClient) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := s.client.DeleteDocument(ctx, &wire.DeleteDocumentRequest{Collection: collection, ID: id})
	return s.mapError(err)
}

func (s *GRPCClient) QueryDocuments(ctx context.Context, collection string, filters ...wire.Filter) ([]wire.Document, error) {
	resp, err := s.client.QueryDocuments(ctx, &wire.QueryDocumentsRequest{Collection: collection, Filters: filters})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Documents, nil
}

type mappedStream struct {
	s      *GRPCClient
	stream wire.ListenClient
}

func (st *mappedStream) Recv() (*wire.ChangeEvent, error) {
	e, err := st.stream.Recv()
	if err != nil {
		return nil, st.s.mapError(err)
	}
	return e, nil
}

func (s *GRPCClient) Listen(ctx context.Context, collection string, filters ...wire.Filter) (Stream, error) {
	stream, err := s.client.Listen(ctx, &wire.ListenRequest{Collection: collection, Filters: filters})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &mappedStream{s: s, stream: stream}, nil
}

func (s *GRPCClient) PresignUpload(ctx context.Context) (string, string, error) {
	resp, err := s.client.PresignUpload(ctx, &wire.PresignUploadRequest{})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.ObjectKey, resp.URL, nil
}

func (s *GRPCClient) PresignDownload(ctx context.Context, shareID string) (string, error) {
	resp, err := s.client.PresignDownload(ctx, &wire.PresignDownloadRequest{ShareID: shareID})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		if st.Message() == common.ErrAccountDisabled.Error() {
			return common.ErrAccountDisabled
		}
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalid, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
