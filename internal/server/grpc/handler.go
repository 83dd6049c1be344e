package grpc

import (
	"context"

	"github.com/dmitrijs2005/simpleshare/internal/server/changefeed"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/dmitrijs2005/simpleshare/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toWireDocument(d *models.Document) wire.Document {
	return wire.Document{
		Collection: d.Collection,
		ID:         d.ID,
		Data:       d.Data,
		Version:    d.Version,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toFilters(in []wire.Filter) []models.Filter {
	out := make([]models.Filter, 0, len(in))
	for _, f := range in {
		out = append(out, models.Filter{Field: f.Field, Value: f.Value})
	}
	return out
}

func callerUID(ctx context.Context) (string, error) {
	uid, ok := UIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing token")
	}
	return uid, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *wire.PingRequest) (*wire.PingResponse, error) {
	return &wire.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *wire.GetSaltRequest) (*wire.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.PhoneNumber)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *wire.SignInRequest) (*wire.SignInResponse, error) {
	res, err := s.users.SignIn(ctx, req.PhoneNumber, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	if s.metrics != nil {
		s.metrics.SignIn(res.Created)
	}
	s.logger.Info(ctx, "Signed in", "uid", res.UID, "created", res.Created)

	return &wire.SignInResponse{
		UID:          res.UID,
		DisplayName:  res.DisplayName,
		Created:      res.Created,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *wire.RefreshTokenRequest) (*wire.RefreshTokenResponse, error) {
	pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) LookupUser(ctx context.Context, req *wire.LookupUserRequest) (*wire.LookupUserResponse, error) {
	user, name, err := s.users.LookupUser(ctx, req.PhoneNumber)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.LookupUserResponse{UID: user.ID, DisplayName: name}, nil
}

func (s *GRPCServer) GetDocument(ctx context.Context, req *wire.GetDocumentRequest) (*wire.GetDocumentResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.documents.Get(ctx, uid, req.Collection, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.GetDocumentResponse{Document: toWireDocument(d)}, nil
}

func (s *GRPCServer) SetDocument(ctx context.Context, req *wire.SetDocumentRequest) (*wire.SetDocumentResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.documents.Set(ctx, uid, req.Collection, req.ID, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.SetDocumentResponse{Document: toWireDocument(d)}, nil
}

func (s *GRPCServer) DeleteDocument(ctx context.Context, req *wire.DeleteDocumentRequest) (*wire.DeleteDocumentResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.documents.Delete(ctx, uid, req.Collection, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.DeleteDocumentResponse{}, nil
}

func (s *GRPCServer) QueryDocuments(ctx context.Context, req *wire.QueryDocumentsRequest) (*wire.QueryDocumentsResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.Query(ctx, uid, req.Collection, toFilters(req.Filters))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out := make([]wire.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, toWireDocument(d))
	}
	return &wire.QueryDocumentsResponse{Documents: out}, nil
}

// Listen streams the current matching set as "added" events, then every
// later change, until the client goes away or the feed drops the listener.
func (s *GRPCServer) Listen(req *wire.ListenRequest, stream wire.ListenServer) error {
	ctx := stream.Context()
	uid, err := callerUID(ctx)
	if err != nil {
		return err
	}

	snapshot, sub, err := s.documents.Listen(ctx, uid, req.Collection, toFilters(req.Filters))
	if err != nil {
		return s.toStatus(ctx, err)
	}
	defer s.documents.Unsubscribe(sub)

	for _, d := range snapshot {
		if err := stream.Send(&wire.ChangeEvent{Type: wire.ChangeAdded, Document: toWireDocument(d)}); err != nil {
			return err
		}
	}
	if err := stream.Send(&wire.ChangeEvent{Type: wire.ChangeSynced}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				if s.metrics != nil {
					s.metrics.StreamClosed()
				}
				return status.Error(codes.Unavailable, "listener closed")
			}
			if err := stream.Send(&wire.ChangeEvent{Type: toChangeType(ev.Type), Document: toWireDocument(ev.Document)}); err != nil {
				return err
			}
		}
	}
}

func toChangeType(t changefeed.ChangeType) wire.ChangeType {
	switch t {
	case changefeed.Modified:
		return wire.ChangeModified
	case changefeed.Removed:
		return wire.ChangeRemoved
	}
	return wire.ChangeAdded
}

func (s *GRPCServer) PresignUpload(ctx context.Context, req *wire.PresignUploadRequest) (*wire.PresignUploadResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	key, url, err := s.attachments.PresignUpload(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.PresignUploadResponse{ObjectKey: key, URL: url}, nil
}

func (s *GRPCServer) PresignDownload(ctx context.Context, req *wire.PresignDownloadRequest) (*wire.PresignDownloadResponse, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	url, err := s.attachments.PresignDownload(ctx, uid, req.ShareID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &wire.PresignDownloadResponse{URL: url}, nil
}
