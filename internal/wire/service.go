package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "simpleshare.v1.SimpleShare"

const (
	MethodPing            = "Ping"
	MethodGetSalt         = "GetSalt"
	MethodSignIn          = "SignIn"
	MethodRefreshToken    = "RefreshToken"
	MethodLookupUser      = "LookupUser"
	MethodGetDocument     = "GetDocument"
	MethodSetDocument     = "SetDocument"
	MethodDeleteDocument  = "DeleteDocument"
	MethodQueryDocuments  = "QueryDocuments"
	MethodListen          = "Listen"
	MethodPresignUpload   = "PresignUpload"
	MethodPresignDownload = "PresignDownload"
)

// FullMethod returns "/<service>/<method>" as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Server is implemented by the backend.
type Server interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	LookupUser(context.Context, *LookupUserRequest) (*LookupUserResponse, error)
	GetDocument(context.Context, *GetDocumentRequest) (*GetDocumentResponse, error)
	SetDocument(context.Context, *SetDocumentRequest) (*SetDocumentResponse, error)
	DeleteDocument(context.Context, *DeleteDocumentRequest) (*DeleteDocumentResponse, error)
	QueryDocuments(context.Context, *QueryDocumentsRequest) (*QueryDocumentsResponse, error)
	Listen(*ListenRequest, ListenServer) error
	PresignUpload(context.Context, *PresignUploadRequest) (*PresignUploadResponse, error)
	PresignDownload(context.Context, *PresignDownloadRequest) (*PresignDownloadResponse, error)
}

// ListenServer is the server side of the Listen stream.
type ListenServer interface {
	Send(*ChangeEvent) error
	Context() context.Context
}

type listenServer struct {
	grpc.ServerStream
}

func (s *listenServer) Send(e *ChangeEvent) error {
	return s.ServerStream.SendMsg(e)
}

// unary builds a MethodDesc that decodes Req, runs the interceptor chain and
// dispatches to call.
func unary[Req, Resp any](name string, call func(Server, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func listenHandler(srv any, stream grpc.ServerStream) error {
	in := new(ListenRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(Server).Listen(in, &listenServer{stream})
}

// ServiceDesc describes the SimpleShare service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, Server.Ping),
		unary(MethodGetSalt, Server.GetSalt),
		unary(MethodSignIn, Server.SignIn),
		unary(MethodRefreshToken, Server.RefreshToken),
		unary(MethodLookupUser, Server.LookupUser),
		unary(MethodGetDocument, Server.GetDocument),
		unary(MethodSetDocument, Server.SetDocument),
		unary(MethodDeleteDocument, Server.DeleteDocument),
		unary(MethodQueryDocuments, Server.QueryDocuments),
		unary(MethodPresignUpload, Server.PresignUpload),
		unary(MethodPresignDownload, Server.PresignDownload),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodListen,
			Handler:       listenHandler,
			ServerStreams: true,
		},
	},
	Metadata: "simpleshare/v1",
}

// RegisterServer registers srv on s.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}
