package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/logging"
)

// TokenVerifier is the read side of TokenIssuer.
type TokenVerifier interface {
	Verify(token string) bool
	Subject(token string) string
}

// PrincipalFinder resolves a username to a principal. A missing user is
// reported as common.ErrorNotFound.
type PrincipalFinder interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
}

// Authenticator resolves the bearer token of a request to an Identity. It
// never rejects a request: every failure degrades to Anonymous and access
// decisions are left to the handlers behind it.
type Authenticator struct {
	tokens TokenVerifier
	users  PrincipalFinder
	logger logging.Logger
}

func NewAuthenticator(tokens TokenVerifier, users PrincipalFinder, logger logging.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		logger: logger.With("module", "authenticator"),
	}
}

// BearerToken extracts the token from an Authorization header value. Only
// the "Bearer <token>" scheme is accepted.
func BearerToken(header string) (string, bool) {
	rest, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok {
		return "", false
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}
	return token, true
}

// Resolve runs the authentication pass for r:
// no token, invalid token, or unknown subject give Anonymous; a valid token
// for an existing user gives an authenticated identity.
func (a *Authenticator) Resolve(r *http.Request) Identity {
	ctx := r.Context()

	token, ok := BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if !ok {
		return Anonymous()
	}

	if !a.tokens.Verify(token) {
		a.logger.Debug(ctx, "bearer token rejected", "path", r.URL.Path)
		return Anonymous()
	}

	username := a.tokens.Subject(token)

	p, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.logger.Debug(ctx, "token subject has no account", "username", username)
		} else {
			a.logger.Warn(ctx, "principal lookup failed", "username", username, "error", err.Error())
		}
		return Anonymous()
	}

	return Authenticated(p)
}

// Middleware installs the resolved Identity into the request context and
// always calls next.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := a.Resolve(r)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
