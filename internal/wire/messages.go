package wire

import (
	"encoding/json"
	"time"
)

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type GetSaltRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type SignInRequest struct {
	PhoneNumber string `json:"phone_number"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
}

type SignInResponse struct {
	UID          string `json:"uid"`
	DisplayName  string `json:"display_name"`
	Created      bool   `json:"created"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LookupUserRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type LookupUserResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
}

// Document is one JSON document in a named collection.
type Document struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Filter is an equality predicate on a top-level string field of Data.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type GetDocumentRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type GetDocumentResponse struct {
	Document Document `json:"document"`
}

type SetDocumentRequest struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

type SetDocumentResponse struct {
	Document Document `json:"document"`
}

type DeleteDocumentRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type DeleteDocumentResponse struct{}

type QueryDocumentsRequest struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters"`
}

type QueryDocumentsResponse struct {
	Documents []Document `json:"documents"`
}

type ListenRequest struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters"`
}

// ChangeType tells listeners what happened to a document.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
	// ChangeSynced follows the initial snapshot of a Listen stream. Its
	// Document is empty.
	ChangeSynced ChangeType = "synced"
)

type ChangeEvent struct {
	Type     ChangeType `json:"type"`
	Document Document   `json:"document"`
}

type PresignUploadRequest struct{}

type PresignUploadResponse struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

// PresignDownloadRequest names the file share whose attachment is wanted;
// the server resolves the object key from the share document.
type PresignDownloadRequest struct {
	ShareID string `json:"share_id"`
}

type PresignDownloadResponse struct {
	URL string `json:"url"`
}
