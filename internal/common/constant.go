// Package common contains shared constants used across the gymkeeper client
// and the development backend.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName carries a per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"

// Keys of the durable client storage.
const (
	CredentialStorageKey = "token"
	RoleStorageKey       = "role"
)

// REST paths of the gym backend.
const (
	PathAuthenticate  = "/api/v1/auth/authenticate"
	PathRegister      = "/api/v1/auth/register"
	PathSendOtp       = "/api/v1/auth/send-otp"
	PathVerifyOtp     = "/api/v1/auth/verify-otp"
	PathCurrentUser   = "/api/v1/users/me"
	PathNotifications = "/api/v1/notifications"
	PathWallet        = "/api/v1/wallet"
)
