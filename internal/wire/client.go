package wire

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
)

// Client is the typed stub over a grpc connection. Every call is sent with
// the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingRequest, PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *Client) GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error) {
	return invoke[GetSaltRequest, GetSaltResponse](ctx, c.cc, MethodGetSalt, in, opts)
}

func (c *Client) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error) {
	return invoke[SignInRequest, SignInResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *Client) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenRequest, RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *Client) LookupUser(ctx context.Context, in *LookupUserRequest, opts ...grpc.CallOption) (*LookupUserResponse, error) {
	return invoke[LookupUserRequest, LookupUserResponse](ctx, c.cc, MethodLookupUser, in, opts)
}

func (c *Client) GetDocument(ctx context.Context, in *GetDocumentRequest, opts ...grpc.CallOption) (*GetDocumentResponse, error) {
	return invoke[GetDocumentRequest, GetDocumentResponse](ctx, c.cc, MethodGetDocument, in, opts)
}

func (c *Client) SetDocument(ctx context.Context, in *SetDocumentRequest, opts ...grpc.CallOption) (*SetDocumentResponse, error) {
	return invoke[SetDocumentRequest, SetDocumentResponse](ctx, c.cc, MethodSetDocument, in, opts)
}

func (c *Client) DeleteDocument(ctx context.Context, in *DeleteDocumentRequest, opts ...grpc.CallOption) (*DeleteDocumentResponse, error) {
	return invoke[DeleteDocumentRequest, DeleteDocumentResponse](ctx, c.cc, MethodDeleteDocument, in, opts)
}

func (c *Client) QueryDocuments(ctx context.Context, in *QueryDocumentsRequest, opts ...grpc.CallOption) (*QueryDocumentsResponse, error) {
	return invoke[QueryDocumentsRequest, QueryDocumentsResponse](ctx, c.cc, MethodQueryDocuments, in, opts)
}

func (c *Client) PresignUpload(ctx context.Context, in *PresignUploadRequest, opts ...grpc.CallOption) (*PresignUploadResponse, error) {
	return invoke[PresignUploadRequest, PresignUploadResponse](ctx, c.cc, MethodPresignUpload, in, opts)
}

func (c *Client) PresignDownload(ctx context.Context, in *PresignDownloadRequest, opts ...grpc.CallOption) (*PresignDownloadResponse, error) {
	return invoke[PresignDownloadRequest, PresignDownloadResponse](ctx, c.cc, MethodPresignDownload, in, opts)
}

// ListenClient receives change events until the stream ends.
type ListenClient interface {
	Recv() (*ChangeEvent, error)
}

type listenClient struct {
	grpc.ClientStream
}

func (c *listenClient) Recv() (*ChangeEvent, error) {
	e := new(ChangeEvent)
	if err := c.ClientStream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Listen opens the server stream. Cancel ctx to stop it.
func (c *Client) Listen(ctx context.Context, in *ListenRequest, opts ...grpc.CallOption) (ListenClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod(MethodListen), opts...)
	if err != nil {
		return nil, err
	}
	// io.EOF means the server already ended the stream; Recv reports why.
	if err := stream.SendMsg(in); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &listenClient{stream}, nil
}
