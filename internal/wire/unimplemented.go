package wire

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnimplementedServer answers every call with codes.Unimplemented. Embed it
// to implement Server partially.
type UnimplementedServer struct{}

func (UnimplementedServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func (UnimplementedServer) GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSalt not implemented")
}

func (UnimplementedServer) SignIn(context.Context, *SignInRequest) (*SignInResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}

func (UnimplementedServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}

func (UnimplementedServer) LookupUser(context.Context, *LookupUserRequest) (*LookupUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LookupUser not implemented")
}

func (UnimplementedServer) GetDocument(context.Context, *GetDocumentRequest) (*GetDocumentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDocument not implemented")
}

func (UnimplementedServer) SetDocument(context.Context, *SetDocumentRequest) (*SetDocumentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetDocument not implemented")
}

func (UnimplementedServer) DeleteDocument(context.Context, *DeleteDocumentRequest) (*DeleteDocumentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteDocument not implemented")
}

func (UnimplementedServer) QueryDocuments(context.Context, *QueryDocumentsRequest) (*QueryDocumentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method QueryDocuments not implemented")
}

func (UnimplementedServer) Listen(*ListenRequest, ListenServer) error {
	return status.Error(codes.Unimplemented, "method Listen not implemented")
}

func (UnimplementedServer) PresignUpload(context.Context, *PresignUploadRequest) (*PresignUploadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PresignUpload not implemented")
}

func (UnimplementedServer) PresignDownload(context.Context, *PresignDownloadRequest) (*PresignDownloadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PresignDownload not implemented")
}
