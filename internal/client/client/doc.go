// Package client contains the transport layer of the gym client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) for the
//     gym backend: Authenticate, SendOtp, VerifyOtp, Register,
//     FetchCurrentUser, UpdateCurrentUser, notifications and wallet.
//  2. A REST implementation (see HTTPClient) that holds the default bearer
//     credential, runs every round trip through a removable interceptor
//     chain, and maps HTTP statuses to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrInvalidCredentials, ErrForbidden,
// ErrUnknown. Field-level rejections are *ValidationError values, which also
// match ErrValidation.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation. WithAccessToken scopes a credential
// to a single call without touching the default.
package client
