// Package session owns the authentication state of the gym client.
//
// A Controller is the single writer of the persisted credential and of the
// backend client's default bearer header. Everything else reads the
// immutable Session snapshots it hands out, either on demand via
// Controller.Session or as a stream via Controller.Subscribe.
//
// Lifecycle:
//
//	Idle --Hydrate--> Authenticating --ok--> Authenticated --Logout/401--> Anonymous
//	                                 --fail--> Anonymous --Login/Register/OTP--> Authenticated
//
// Credential-issuing calls validate the new credential by fetching the
// profile before anything is persisted, so a failed login leaves the
// session exactly as it was. A logout issued while such a call is in
// flight wins: the late result is discarded with ErrSuperseded.
package session
