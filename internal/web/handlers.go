package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/logging"
)

// view is the data every page template receives.
type view struct {
	User *auth.User
	Data interface{}
}

// render executes a page template inside the layout.
// Output is buffered so a template error never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	user, _ := auth.UserFromContext(r.Context())

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view{User: user, Data: data}); err != nil {
		slog.Error("rendering template", "name", name, "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("writing response", "err", err)
	}
}

// requireRole returns the request's user when it has one of types.
// Otherwise it writes a login redirect or a 403 and returns false.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, types ...auth.UserType) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginRedirect(r.URL.Path), http.StatusSeeOther)
		return nil, false
	}
	if len(types) > 0 && !user.Is(types...) {
		slog.Warn("role check failed", "user", user.Username, "type", user.Type, "path", r.URL.Path)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return user, true
}

// serverError logs err and writes a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "err", err, "path", r.URL.Path, "request_id", logging.RequestID(r.Context()))
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("encoding health response", "err", err)
	}
}

// handleHome renders the landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home.html", nil)
}

type passkeyItem struct {
	ID   string
	Name string
}

type settingsData struct {
	Passkeys []passkeyItem
	Error    string
}

// handleSettings renders the settings page with passkey management.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r)
	if !ok {
		return
	}

	stored, err := s.passkeys.ListByUser(user.ID)
	if err != nil {
		serverError(w, r, "loading passkeys", err)
		return
	}

	passkeys := make([]passkeyItem, len(stored))
	for i, sc := range stored {
		passkeys[i] = passkeyItem{ID: sc.ID, Name: sc.Name}
	}

	s.render(w, r, "settings.html", settingsData{Passkeys: passkeys})
}

// handlePasskeyDelete removes one of the current user's passkeys.
func (s *Server) handlePasskeyDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Missing credential ID", http.StatusBadRequest)
		return
	}

	if err := s.passkeys.Delete(id, user.ID); err != nil {
		if errors.Is(err, auth.ErrCredentialNotFound) {
			http.Error(w, "Passkey not found", http.StatusNotFound)
			return
		}
		serverError(w, r, "deleting passkey", err)
		return
	}

	http.Redirect(w, r, "/settings/", http.StatusSeeOther)
}
