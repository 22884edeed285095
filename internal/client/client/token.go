package client

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

type ctxKey string

const accessTokenKey ctxKey = "access_token"

// WithAccessToken returns a context whose requests carry token instead of the
// client's default credential. Used to validate a freshly issued credential
// before it becomes the default.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFromContext reports the credential set by WithAccessToken.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(accessTokenKey).(string)
	return tok, ok
}

// NewToken wraps an opaque bearer credential. When the credential happens to
// be a JWT its exp claim becomes the token expiry; the signature is not
// checked, the backend remains the authority.
func NewToken(credential string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}
	if exp, ok := credentialExpiry(credential); ok {
		tok.Expiry = exp
	}
	return tok
}

// CredentialExpired reports whether credential is a JWT whose exp claim is
// already in the past. Opaque credentials are never considered expired.
func CredentialExpired(credential string) bool {
	if credential == "" {
		return true
	}
	return !NewToken(credential).Valid()
}

func credentialExpiry(credential string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
