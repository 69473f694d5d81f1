// Package web provides the HTTP server and handlers for the emptytohome web UI.
package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/contract"
	"github.com/evcraddock/emptytohome/internal/logging"
	"github.com/evcraddock/emptytohome/internal/meeting"
	"github.com/evcraddock/emptytohome/internal/payment"
	"github.com/evcraddock/emptytohome/internal/property"
	"github.com/evcraddock/emptytohome/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Config holds web server settings.
type Config struct {
	BaseURL string // public URL, used as the WebAuthn origin
	DevMode bool   // allows session cookies over plain HTTP
}

// Server is the web UI HTTP server.
type Server struct {
	users      *auth.UserStore
	sessions   *auth.SessionStore
	passkeys   *auth.PasskeyStore
	limiter    *auth.RateLimiter
	properties *property.Repository
	propSvc    *property.Service
	contracts  *contract.Repository
	contractSv *contract.Service
	payments   *payment.Repository
	meetings   *meeting.Repository
	files      storage.Store

	pages   map[string]*template.Template
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates a web server over the given database and file store.
func NewServer(db *sql.DB, files storage.Store, cfg Config) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	users := auth.NewUserStore(db)
	props := property.NewRepository(db)
	contracts := contract.NewRepository(db)

	s := &Server{
		users:      users,
		sessions:   auth.NewSessionStore(db, !cfg.DevMode),
		passkeys:   auth.NewPasskeyStore(db),
		limiter:    auth.NewRateLimiter(),
		properties: props,
		propSvc:    property.NewService(props, users, files),
		contracts:  contracts,
		contractSv: contract.NewService(contracts, props, files),
		payments:   payment.NewRepository(db),
		meetings:   meeting.NewRepository(db),
		files:      files,
		pages:      pages,
		mux:        http.NewServeMux(),
	}

	pk, err := newPasskeyHandlers(cfg.BaseURL, s.passkeys, s.sessions, s.users)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleHome)

	s.mux.HandleFunc("GET /login/", s.handleLoginPage)
	s.mux.HandleFunc("POST /login/", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /logout/", s.handleLogout)

	s.mux.HandleFunc("GET /institution_dashboard/", s.handleInstitutionDashboard)
	s.mux.HandleFunc("GET /owner_dashboard/", s.handleOwnerDashboard)
	s.mux.HandleFunc("GET /tenant_dashboard/", s.handleTenantDashboard)
	s.mux.HandleFunc("GET /investor_dashboard/", s.handleInvestorDashboard)

	s.mux.HandleFunc("GET /add_payment_method/", s.handleAddPaymentPage)
	s.mux.HandleFunc("POST /add_payment_method/", s.handleAddPaymentSubmit)
	s.mux.HandleFunc("GET /view_payments/", s.handleViewPayments)

	s.mux.HandleFunc("GET /upload_contract/", s.handleUploadContractPage)
	s.mux.HandleFunc("POST /upload_contract/", s.handleUploadContractSubmit)
	s.mux.HandleFunc("GET /download_contract/{id}/", s.handleDownloadContract)

	s.mux.HandleFunc("GET /property_list/", s.handlePropertyList)
	s.mux.HandleFunc("GET /search_properties/", s.handleSearchProperties)
	s.mux.HandleFunc("GET /upload_property_image/", s.handleUploadImagePage)
	s.mux.HandleFunc("POST /upload_property_image/", s.handleUploadImageSubmit)
	s.mux.HandleFunc("GET /media/property_images/{name}", s.handlePropertyImage)

	s.mux.HandleFunc("GET /request_meeting/", s.handleRequestMeetingPage)
	s.mux.HandleFunc("POST /request_meeting/", s.handleRequestMeetingSubmit)
	s.mux.HandleFunc("GET /manage_meetings/", s.handleManageMeetings)
	s.mux.HandleFunc("POST /manage_meetings/", s.handleRespondMeeting)

	s.mux.HandleFunc("GET /manage_users/", s.handleManageUsers)
	s.mux.HandleFunc("POST /manage_users/", s.handleAddUser)

	s.mux.HandleFunc("GET /settings/", s.handleSettings)
	s.mux.HandleFunc("POST /settings/passkey/delete", s.handlePasskeyDelete)
	s.mux.HandleFunc("POST /passkey/register/begin", pk.handleBeginRegistration)
	s.mux.HandleFunc("POST /passkey/register/finish", pk.handleFinishRegistration)
	s.mux.HandleFunc("POST /passkey/login/begin", pk.handleBeginLogin)
	s.mux.HandleFunc("POST /passkey/login/finish", pk.handleFinishLogin)

	s.handler = logging.RequestLogger(auth.RequireAuth(s.sessions, s.mux))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web UI", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// parsePages parses each page template together with the shared layout
// and partials.
func parsePages() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate":     tmplFormatDate,
		"formatDateTime": tmplFormatDateTime,
		"yesNo":          tmplYesNo,
		"mediaURL":       tmplMediaURL,
		"paymentMethods": func() []payment.Method { return payment.Methods },
		"contractTypes":  func() []contract.Type { return contract.ValidTypes },
		"userTypes":      func() []auth.UserType { return auth.ValidUserTypes },
	}

	base, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := path.Base(f)
		if name == "layout.html" || name == "partials.html" {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

// Template helper functions

func tmplFormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02")
}

func tmplFormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04")
}

func tmplYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// tmplMediaURL maps a property image storage key to its serving URL.
func tmplMediaURL(key string) string {
	if !strings.HasPrefix(key, storage.PropertyImages+"/") {
		return ""
	}
	return "/media/" + key
}
