package web

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/evcraddock/emptytohome/internal/auth"
)

type loginData struct {
	Username string
	Next     string
	Error    string
}

const (
	msgBadLogin    = "Please enter a correct username and password."
	msgRateLimited = "Too many failed login attempts. Try again in a minute."
)

// handleLoginPage renders the login form. Logged-in users go to their dashboard.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"))
	if user, ok := auth.UserFromContext(r.Context()); ok {
		if next == "" {
			next = user.Type.DashboardPath()
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", loginData{Next: next})
}

// handleLoginSubmit checks a username and password and starts a session.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	data := loginData{Username: username, Next: auth.SafeNext(r.FormValue("next"))}

	key := clientIP(r)
	if s.limiter.Limited(key) {
		slog.Warn("login rate limited", "ip", key)
		data.Error = msgRateLimited
		s.renderStatus(w, r, http.StatusTooManyRequests, "login.html", data)
		return
	}

	if username == "" || password == "" {
		data.Error = msgBadLogin
		s.render(w, r, "login.html", data)
		return
	}

	user, err := s.users.Authenticate(username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			serverError(w, r, "authenticating", err)
			return
		}
		s.limiter.RecordFailure(key)
		slog.Info("login failed", "username", username, "ip", key)
		data.Error = msgBadLogin
		s.render(w, r, "login.html", data)
		return
	}

	s.limiter.Reset(key)
	if err := s.sessions.Create(w, user.ID); err != nil {
		serverError(w, r, "creating session", err)
		return
	}

	slog.Info("login success", "username", user.Username, "method", "password")

	next := data.Next
	if next == "" {
		next = user.Type.DashboardPath()
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout destroys the session and redirects home.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clientIP returns the remote host without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
