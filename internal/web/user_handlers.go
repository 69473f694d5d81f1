package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/form"
)

type manageUsersData struct {
	Users    []*auth.User
	Username string
	Type     string
	Errors   form.Errors
}

func (s *Server) renderManageUsers(w http.ResponseWriter, r *http.Request, data manageUsersData) {
	users, err := s.users.List()
	if err != nil {
		serverError(w, r, "listing users", err)
		return
	}
	data.Users = users
	s.render(w, r, "manage_users.html", data)
}

// handleManageUsers lists accounts for institution users.
func (s *Server) handleManageUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r, auth.Institution); !ok {
		return
	}
	s.renderManageUsers(w, r, manageUsersData{})
}

// handleAddUser creates an account from the institution user form.
func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.requireRole(w, r, auth.Institution)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	data := manageUsersData{
		Username: strings.TrimSpace(r.FormValue("username")),
		Type:     r.FormValue("user_type"),
		Errors:   form.Errors{},
	}
	password := r.FormValue("password")

	data.Errors.Required("username", data.Username)
	data.Errors.Required("password", password)
	data.Errors.Required("user_type", data.Type)
	if data.Type != "" && !auth.UserType(data.Type).IsValid() {
		data.Errors.Add("user_type", "Select a valid choice. "+data.Type+" is not one of the available choices.")
	}
	if data.Errors.Any() {
		s.renderManageUsers(w, r, data)
		return
	}

	user, err := s.users.Add(data.Username, password, auth.UserType(data.Type))
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			data.Errors.Add("username", "A user with that username already exists.")
			s.renderManageUsers(w, r, data)
			return
		}
		serverError(w, r, "adding user", err)
		return
	}

	slog.Info("user added", "username", user.Username, "type", user.Type, "by", admin.Username)
	http.Redirect(w, r, "/manage_users/", http.StatusSeeOther)
}
