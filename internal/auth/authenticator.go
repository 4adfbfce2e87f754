package auth

import (
	"log/slog"
	"net/http"

	"github.com/accesshub/accesshub/internal/shared"
)

// TokenCookie is the cookie carrying the signed session token.
const TokenCookie = "token"

// Authenticator resolves a request's identity from the token cookie. Every
// failure mode (no cookie, bad signature, expired token, deleted account)
// normalises to "no identity"; it never produces an error response itself.
type Authenticator struct {
	logger  *slog.Logger
	tokens  *shared.TokenManager
	service *Service
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(logger *slog.Logger, tokens *shared.TokenManager, service *Service) *Authenticator {
	return &Authenticator{logger: logger, tokens: tokens, service: service}
}

// FromRequest returns the authenticated user for the request, or nil.
func (a *Authenticator) FromRequest(r *http.Request) *User {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return nil
	}
	userID, err := a.tokens.Verify(cookie.Value)
	if err != nil {
		if a.logger != nil {
			a.logger.Debug("reject session token", slog.Any("error", err))
		}
		return nil
	}
	user, err := a.service.UserByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// Middleware attaches the resolved identity to the request context.
// Unauthenticated requests pass through; route guards decide what to do.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := a.FromRequest(r); user != nil {
			r = r.WithContext(ContextWithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
