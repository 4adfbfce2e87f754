package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/accesshub/accesshub/internal/auth"
	"github.com/accesshub/accesshub/internal/shared"
	_ "github.com/accesshub/accesshub/testing"
)

func newAuthenticator(t *testing.T, repo auth.Repository, ttl time.Duration) (*auth.Authenticator, *shared.TokenManager) {
	t.Helper()
	tokens, err := shared.NewTokenManager("test-secret", ttl)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return auth.NewAuthenticator(testLogger(), tokens, auth.NewService(repo)), tokens
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	return req
}

func TestAuthenticatorResolvesUser(t *testing.T) {
	user := activeUser(t, "pw")
	authn, tokens := newAuthenticator(t, &stubRepo{user: user}, time.Hour)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got := authn.FromRequest(requestWithToken(token))
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected user %d, got %+v", user.ID, got)
	}
}

func TestAuthenticatorNoCookie(t *testing.T) {
	authn, _ := newAuthenticator(t, &stubRepo{user: activeUser(t, "pw")}, time.Hour)

	if got := authn.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Fatalf("expected nil identity, got %+v", got)
	}
}

func TestAuthenticatorBadToken(t *testing.T) {
	authn, _ := newAuthenticator(t, &stubRepo{user: activeUser(t, "pw")}, time.Hour)

	if got := authn.FromRequest(requestWithToken("garbage")); got != nil {
		t.Fatalf("expected nil identity, got %+v", got)
	}
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	user := activeUser(t, "pw")
	authn, tokens := newAuthenticator(t, &stubRepo{user: user}, time.Nanosecond)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if got := authn.FromRequest(requestWithToken(token)); got != nil {
		t.Fatalf("expected nil identity for expired token, got %+v", got)
	}
}

func TestAuthenticatorDeletedUser(t *testing.T) {
	authn, tokens := newAuthenticator(t, &stubRepo{}, time.Hour)

	token, err := tokens.Issue(99)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := authn.FromRequest(requestWithToken(token)); got != nil {
		t.Fatalf("expected nil identity for deleted user, got %+v", got)
	}
}

func TestAuthenticatorDeactivatedUser(t *testing.T) {
	user := activeUser(t, "pw")
	user.IsActive = false
	authn, tokens := newAuthenticator(t, &stubRepo{user: user}, time.Hour)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := authn.FromRequest(requestWithToken(token)); got != nil {
		t.Fatalf("expected nil identity for deactivated user, got %+v", got)
	}
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	user := activeUser(t, "pw")
	authn, tokens := newAuthenticator(t, &stubRepo{user: user}, time.Hour)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *auth.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFromContext(r.Context())
	})
	res := httptest.NewRecorder()
	authn.Middleware(next).ServeHTTP(res, requestWithToken(token))

	if seen == nil || seen.ID != user.ID {
		t.Fatalf("expected identity in context, got %+v", seen)
	}
}

func TestMiddlewarePassesThroughUnauthenticated(t *testing.T) {
	authn, _ := newAuthenticator(t, &stubRepo{}, time.Hour)

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if auth.UserFromContext(r.Context()) != nil {
			t.Fatalf("expected no identity in context")
		}
	})
	res := httptest.NewRecorder()
	authn.Middleware(next).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatalf("expected next handler to run")
	}
}
