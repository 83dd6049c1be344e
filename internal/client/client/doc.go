// Package client talks to the SimpleShare backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): sign-in,
//     user lookup, document get/set/delete/query, collection listeners and
//     presigned attachment URLs.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects an access token via interceptors, transparently
//     refreshes expired tokens, and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrForbidden, ErrNotFound,
// ErrInvalid and common.ErrAccountDisabled.
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
