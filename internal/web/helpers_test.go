package web

import (
	"bytes"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/db"
	"github.com/evcraddock/emptytohome/internal/property"
	"github.com/evcraddock/emptytohome/internal/storage"
)

type testEnv struct {
	srv      *Server
	db       *sql.DB
	mediaDir string
	users    *auth.UserStore
	sessions *auth.SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	mediaDir := t.TempDir()
	store, err := storage.NewDiskStore(mediaDir)
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	srv, err := NewServer(d, store, Config{BaseURL: "http://localhost:8080", DevMode: true})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return &testEnv{
		srv:      srv,
		db:       d,
		mediaDir: mediaDir,
		users:    auth.NewUserStore(d),
		sessions: auth.NewSessionStore(d, false),
	}
}

func (e *testEnv) addUser(t *testing.T, username string, ut auth.UserType) *auth.User {
	t.Helper()
	u, err := e.users.Add(username, "secret-"+username, ut)
	if err != nil {
		t.Fatalf("add user %s: %v", username, err)
	}
	return u
}

// login creates a session for u and returns its cookie.
func (e *testEnv) login(t *testing.T, u *auth.User) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := e.sessions.Create(w, u.ID); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "eth_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (e *testEnv) addProperty(t *testing.T, owner *auth.User, number, city string) *property.Property {
	t.Helper()
	p, err := property.NewRepository(e.db).Insert(&property.Property{
		OwnerID: owner.ID,
		Address: "Via Roma " + number,
		City:    city,
		Rooms:   3,
		Number:  number,
	})
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	return p
}

// do serves r through the full middleware chain, optionally with a session.
func (e *testEnv) do(r *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest("GET", path, nil), cookie)
}

func (e *testEnv) postForm(path string, vals url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", path, strings.NewReader(vals.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(r, cookie)
}

// postMultipart sends fields plus an optional file under fileField.
func (e *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, fileField, filename string, content []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	r := httptest.NewRequest("POST", path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(r, cookie)
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("location = %q, want %q", got, location)
	}
}
