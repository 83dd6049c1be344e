// Package common contains shared constants and sentinel errors used across
// SimpleShare components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Document collections known to both the server rules and the client
// providers.
const (
	CollectionAccounts = "accounts"
	CollectionPublic   = "public"
	CollectionProfiles = "profiles"
	CollectionShares   = "shares"
)
