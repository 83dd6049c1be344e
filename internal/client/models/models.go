// Package models defines the client-side shapes of SimpleShare data: the
// signed-in user, account and public info, profiles and shares.
//
// JSON tags match the document layout stored by the server, so a value can
// be marshalled straight into a document body.
package models

import (
	"encoding/json"
	"time"
)

// MaxProfiles is the soft cap on profiles per user enforced by the shell.
const MaxProfiles = 5

// User is the identity returned by sign-in.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
}

// AccountInfo is private to its owner (accounts/<uid>).
type AccountInfo struct {
	PhoneNumber       string `json:"phone_number"`
	IsAccountComplete bool   `json:"is_account_complete"`
}

// PublicGeneralInfo is readable by every signed-in user (public/<uid>).
type PublicGeneralInfo struct {
	DisplayName      string `json:"display_name"`
	IsComplete       bool   `json:"is_complete"`
	DefaultProfileID string `json:"default_profile_id"`
}

// Profile is a named inbox a user can receive shares on.
type Profile struct {
	ID       string `json:"id,omitempty"`
	OwnerUID string `json:"owner_uid"`
	Name     string `json:"name"`
}

type ShareType string

const (
	ShareTypeText ShareType = "text"
	ShareTypeFile ShareType = "file"
)

// Attachment points at an encrypted object uploaded for a file share. Key and
// Nonce open the object with cryptox.Open; they travel in the share document
// itself, so they are visible to the server.
type Attachment struct {
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name"`
	Key       []byte `json:"key"`
	Nonce     []byte `json:"nonce"`
}

type Share struct {
	ID            string      `json:"id,omitempty"`
	Type          ShareType   `json:"type"`
	TextContent   string      `json:"text_content,omitempty"`
	FromUID       string      `json:"from_uid"`
	FromProfileID string      `json:"from_profile_id,omitempty"`
	ToUID         string      `json:"to_uid"`
	ToProfileID   string      `json:"to_profile_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Attachment    *Attachment `json:"attachment,omitempty"`
}

// Preferences are local settings kept across restarts.
type Preferences struct {
	DefaultToastSeconds int    `json:"default_toast_seconds"`
	LastPhoneNumber     string `json:"last_phone_number,omitempty"`
}

// Decode unmarshals a document body into v.
func Decode[T any](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
