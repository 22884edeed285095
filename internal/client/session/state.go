package session

import (
	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
)

// Status is the authentication status of a Session.
type Status int

const (
	StatusIdle Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Settled reports whether s is a stable state that routing may act on.
func (s Status) Settled() bool {
	return s == StatusAuthenticated || s == StatusAnonymous
}

// Session is an immutable snapshot. User is non-nil iff Status is
// StatusAuthenticated, and each snapshot owns its copy of the profile.
type Session struct {
	Status Status
	User   *models.UserProfile
}

// Role returns the user's role or "" when nobody is logged in.
func (s Session) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Session) clone() Session {
	return Session{Status: s.Status, User: s.User.Clone()}
}

// Notice tells the login screen why the user was sent there.
type Notice int

const (
	NoticeLoggedOut Notice = iota + 1
	NoticeSessionExpired
)

func (n Notice) Message() string {
	switch n {
	case NoticeSessionExpired:
		return "Session expired, please log in again"
	default:
		return "Logged out"
	}
}

// Navigator performs the redirect-to-login side effect of a logout.
type Navigator interface {
	RedirectToLogin(notice Notice)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(notice Notice)

func (f NavigatorFunc) RedirectToLogin(notice Notice) { f(notice) }
