package web

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/property"
)

var samplePNG = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0x01}, 64)...)

func TestPropertyList(t *testing.T) {
	env := newTestEnv(t)
	olga := env.addUser(t, "olga", auth.Owner)
	tom := env.addUser(t, "tom", auth.Tenant)
	env.addProperty(t, olga, "MI-1", "Milano")
	env.addProperty(t, olga, "TO-1", "Torino")

	w := env.get("/property_list/", env.login(t, tom))

	assertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{"MI-1", "TO-1", "Milano", "olga"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestSearchProperties(t *testing.T) {
	env := newTestEnv(t)
	olga := env.addUser(t, "olga", auth.Owner)
	tom := env.addUser(t, "tom", auth.Tenant)
	cookie := env.login(t, tom)
	env.addProperty(t, olga, "MI-1", "Milano")
	if _, err := property.NewRepository(env.db).Insert(&property.Property{
		OwnerID:      olga.ID,
		Address:      "Via Verdi 2",
		City:         "Milano",
		Rooms:        5,
		HasCourtyard: true,
		Number:       "MI-2",
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	env.addProperty(t, olga, "RM-1", "Roma")

	tests := []struct {
		name    string
		query   url.Values
		want    []string
		notWant []string
	}{
		{"city substring", url.Values{"city": {"mila"}}, []string{"MI-1", "MI-2"}, []string{"RM-1"}},
		{"min rooms", url.Values{"min_rooms": {"4"}}, []string{"MI-2"}, []string{"MI-1", "RM-1"}},
		{"courtyard", url.Values{"courtyard": {"1"}}, []string{"MI-2"}, []string{"MI-1", "RM-1"}},
		{"empty filters match all", url.Values{"city": {""}}, []string{"MI-1", "MI-2", "RM-1"}, nil},
		{"no submission shows no results", url.Values{}, nil, []string{"MI-1", "MI-2", "RM-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get("/search_properties/?"+tt.query.Encode(), cookie)
			assertStatus(t, w, http.StatusOK)
			body := w.Body.String()
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("missing %s", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("unexpected %s", s)
				}
			}
		})
	}
}

func TestSearchPropertiesBadRooms(t *testing.T) {
	env := newTestEnv(t)
	tom := env.addUser(t, "tom", auth.Tenant)

	w := env.get("/search_properties/?min_rooms=lots", env.login(t, tom))

	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Enter a whole number.") {
		t.Error("expected min_rooms error")
	}
}

func TestUploadPropertyImage(t *testing.T) {
	env := newTestEnv(t)
	olga := env.addUser(t, "olga", auth.Owner)
	p := env.addProperty(t, olga, "MI-1", "Milano")
	cookie := env.login(t, olga)

	w := env.get("/upload_property_image/", cookie)
	assertStatus(t, w, http.StatusOK)

	w = env.postMultipart(t, "/upload_property_image/", map[string]string{"property": strconv.FormatInt(p.ID, 10)}, "image", "Front Door.png", samplePNG, cookie)
	assertRedirect(t, w, "/property_list/")

	got, err := property.NewRepository(env.db).GetByID(p.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if !strings.HasPrefix(got.Image, "property_images/") || !strings.HasSuffix(got.Image, "-front-door.png") {
		t.Fatalf("image key = %q", got.Image)
	}

	w = env.get("/property_list/", cookie)
	if !strings.Contains(w.Body.String(), `src="/media/`+got.Image+`"`) {
		t.Error("expected image on property list")
	}

	w = env.get("/media/"+got.Image, cookie)
	assertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), samplePNG) {
		t.Error("served image differs from upload")
	}
}

func TestUploadPropertyImageRejected(t *testing.T) {
	env := newTestEnv(t)
	olga := env.addUser(t, "olga", auth.Owner)
	otto := env.addUser(t, "otto", auth.Owner)
	tom := env.addUser(t, "tom", auth.Tenant)
	p := env.addProperty(t, olga, "MI-1", "Milano")
	id := strconv.FormatInt(p.ID, 10)

	w := env.postMultipart(t, "/upload_property_image/", map[string]string{"property": id}, "image", "notes.png", []byte("just some text"), env.login(t, olga))
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Upload a valid image.") {
		t.Error("expected invalid image error")
	}

	w = env.postMultipart(t, "/upload_property_image/", map[string]string{"property": id}, "image", "a.png", samplePNG, env.login(t, otto))
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Select a valid choice.") {
		t.Error("expected property choice error for foreign owner")
	}

	w = env.postMultipart(t, "/upload_property_image/", map[string]string{"property": id}, "image", "a.png", samplePNG, env.login(t, tom))
	assertStatus(t, w, http.StatusForbidden)

	got, err := property.NewRepository(env.db).GetByID(p.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if got.Image != "" {
		t.Errorf("image = %q, want none", got.Image)
	}
}

func TestPropertyImageNotFound(t *testing.T) {
	env := newTestEnv(t)
	tom := env.addUser(t, "tom", auth.Tenant)
	cookie := env.login(t, tom)

	assertStatus(t, env.get("/media/property_images/missing.png", cookie), http.StatusNotFound)
}
