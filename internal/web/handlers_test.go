package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/emptytohome/internal/auth"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/health", nil)

	assertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestHomeAnonymous(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/", nil)

	assertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Welcome to EmptyToHome") {
		t.Error("expected landing page")
	}
	if !strings.Contains(body, `href="/login/"`) {
		t.Error("expected login link")
	}
}

func TestHomeLinksDashboard(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "olga", auth.Owner)

	w := env.get("/", env.login(t, u))

	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `href="/owner_dashboard/"`) {
		t.Error("expected dashboard link for owner")
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/static/style.css", "/static/passkey.js"} {
		w := env.get(path, nil)
		assertStatus(t, w, http.StatusOK)
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "olga", auth.Owner)

	w := env.get("/nowhere/", env.login(t, u))

	assertStatus(t, w, http.StatusNotFound)
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{
		"/institution_dashboard/",
		"/owner_dashboard/",
		"/tenant_dashboard/",
		"/investor_dashboard/",
		"/add_payment_method/",
		"/view_payments/",
		"/upload_contract/",
		"/download_contract/1/",
		"/property_list/",
		"/upload_property_image/",
		"/search_properties/",
		"/request_meeting/",
		"/manage_meetings/",
		"/manage_users/",
		"/settings/",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := env.get(path, nil)
			assertStatus(t, w, http.StatusSeeOther)
			if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/login/") {
				t.Errorf("location = %q, want /login/...", loc)
			}
			if strings.Contains(w.Body.String(), "<table") {
				t.Error("redirect leaked page content")
			}
		})
	}
}

func TestRoleChecks(t *testing.T) {
	env := newTestEnv(t)
	cookies := map[auth.UserType]*http.Cookie{}
	for _, ut := range auth.ValidUserTypes {
		cookies[ut] = env.login(t, env.addUser(t, "user-"+string(ut), ut))
	}

	tests := []struct {
		path    string
		allowed []auth.UserType
	}{
		{"/institution_dashboard/", []auth.UserType{auth.Institution}},
		{"/owner_dashboard/", []auth.UserType{auth.Owner}},
		{"/tenant_dashboard/", []auth.UserType{auth.Tenant}},
		{"/investor_dashboard/", []auth.UserType{auth.Investor}},
		{"/manage_meetings/", []auth.UserType{auth.Institution}},
		{"/manage_users/", []auth.UserType{auth.Institution}},
		{"/request_meeting/", []auth.UserType{auth.Investor}},
		{"/upload_contract/", []auth.UserType{auth.Tenant, auth.Owner, auth.Institution}},
		{"/upload_property_image/", []auth.UserType{auth.Owner, auth.Institution}},
		{"/property_list/", auth.ValidUserTypes},
		{"/search_properties/", auth.ValidUserTypes},
		{"/view_payments/", auth.ValidUserTypes},
		{"/add_payment_method/", auth.ValidUserTypes},
		{"/settings/", auth.ValidUserTypes},
	}

	for _, tt := range tests {
		for _, ut := range auth.ValidUserTypes {
			want := http.StatusForbidden
			for _, a := range tt.allowed {
				if a == ut {
					want = http.StatusOK
				}
			}
			t.Run(tt.path+" as "+string(ut), func(t *testing.T) {
				w := env.get(tt.path, cookies[ut])
				assertStatus(t, w, want)
				if want == http.StatusForbidden && !strings.Contains(w.Body.String(), "Forbidden") {
					t.Errorf("body = %q, want Forbidden", w.Body.String())
				}
			})
		}
	}
}

func TestSettingsListsNoPasskeys(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "tom", auth.Tenant)

	w := env.get("/settings/", env.login(t, u))

	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "No passkeys registered.") {
		t.Error("expected empty passkey state")
	}
}

func TestPasskeyDeleteUnknown(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "tom", auth.Tenant)

	w := env.postForm("/settings/passkey/delete", map[string][]string{"id": {"nope"}}, env.login(t, u))

	assertStatus(t, w, http.StatusNotFound)
}

func TestPasskeyLoginBeginIsPublic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(newPost("/passkey/login/begin"), nil)

	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "challenge") {
		t.Errorf("body = %q, want assertion options", w.Body.String())
	}
}

func TestPasskeyRegisterBeginRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(newPost("/passkey/register/begin"), nil)

	assertStatus(t, w, http.StatusSeeOther)
}

func TestPasskeyFinishWithoutCeremony(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "tom", auth.Tenant)

	w := env.do(newPost("/passkey/register/finish"), env.login(t, u))
	assertStatus(t, w, http.StatusBadRequest)

	w = env.do(newPost("/passkey/login/finish"), nil)
	assertStatus(t, w, http.StatusBadRequest)
}

func newPost(path string) *http.Request {
	return httptest.NewRequest("POST", path, nil)
}
