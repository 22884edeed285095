package session

import "errors"

var (
	// ErrSuperseded means a logout happened while the call was in flight and
	// its result was discarded.
	ErrSuperseded = errors.New("superseded by logout")

	// ErrNotAuthenticated is returned by calls that need a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrOtpThrottled is returned when a code was requested too recently.
	ErrOtpThrottled = errors.New("otp requested too recently")
)
