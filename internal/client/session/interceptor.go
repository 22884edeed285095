package session

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
)

// rejectionInterceptor turns a 401 for the live credential into a forced
// logout. The response is passed through untouched so the caller still sees
// its own rejection.
type rejectionInterceptor struct {
	c *Controller
}

func (i *rejectionInterceptor) Intercept(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	token, ok := bearerToken(req)
	if !ok || !i.c.rejectNow(token) {
		return resp, err
	}

	i.c.log.Info(req.Context(), "request rejected", "path", req.URL.Path)
	i.c.forceLogout(req.Context(), token)
	return resp, err
}

func bearerToken(req *http.Request) (string, bool) {
	h := req.Header.Get(common.AuthorizationHeaderName)
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// rejectNow reports whether a 401 for token must end the session right
// away. Only the credential of the current Authenticated session counts;
// 401s for anything else (a login being validated, a hydrate in progress,
// a credential already rotated away) are handled by the operation that sent
// them. While a profile update may be rotating the credential, the
// rejection is recorded and UpdateProfile decides once the new one arrives.
func (c *Controller) rejectNow(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Status != StatusAuthenticated || c.credential != token {
		return false
	}
	if c.rotating > 0 {
		c.rejectedWhileRotating = true
		return false
	}
	return true
}
