package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/evcraddock/emptytohome/internal/logging"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login/"

// RequireAuth is middleware that resolves the session cookie into a request
// identity and redirects unauthenticated requests to the login page.
// Public paths are served without a session, but still see the identity
// when one exists.
func RequireAuth(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := sessions.Validate(r)
		if err == nil {
			r = r.WithContext(WithUser(r.Context(), user))
			logging.SetUser(r.Context(), user.Username)
		} else if !isSessionMiss(err) {
			slog.Error("validating session", "err", err, "path", r.URL.Path)
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if err != nil {
			http.Redirect(w, r, LoginRedirect(r.URL.Path), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoginRedirect returns the login URL that sends the user back to next.
func LoginRedirect(next string) string {
	if next == "" || next == "/" || next == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local path, otherwise "".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func isSessionMiss(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrSessionExpired)
}

func isPublicPath(path string) bool {
	switch path {
	case "/", LoginPath, "/logout/", "/health":
		return true
	}
	if strings.HasPrefix(path, "/static/") {
		return true
	}
	// Passkey login endpoints must be public (user isn't authenticated yet)
	if path == "/passkey/login/begin" || path == "/passkey/login/finish" {
		return true
	}
	return false
}
