package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/meeting"
)

func TestRequestMeeting(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice", auth.Investor)
	cookie := env.login(t, alice)

	w := env.postForm("/request_meeting/", url.Values{
		"date":    {"2025-01-01T10:00"},
		"message": {"Interested"},
	}, cookie)
	assertRedirect(t, w, "/investor_dashboard/")

	list, err := meeting.NewRepository(env.db).ListByInvestor(alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Message != "Interested" || !list[0].Pending() {
		t.Fatalf("meetings = %+v", list)
	}

	w = env.get("/investor_dashboard/", cookie)
	body := w.Body.String()
	if !strings.Contains(body, "Interested") || !strings.Contains(body, "Pending") {
		t.Error("expected pending request on dashboard")
	}
}

func TestRequestMeetingValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice", auth.Investor)

	w := env.postForm("/request_meeting/", url.Values{
		"date":    {"next tuesday"},
		"message": {""},
	}, env.login(t, alice))

	assertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Enter a valid date/time.") {
		t.Error("expected date error")
	}
	if !strings.Contains(body, "This field is required.") {
		t.Error("expected message error")
	}
}

func TestRequestMeetingForbidden(t *testing.T) {
	env := newTestEnv(t)
	tom := env.addUser(t, "tom", auth.Tenant)
	cookie := env.login(t, tom)

	assertStatus(t, env.get("/request_meeting/", cookie), http.StatusForbidden)
	w := env.postForm("/request_meeting/", url.Values{"date": {"2025-01-01"}, "message": {"hi"}}, cookie)
	assertStatus(t, w, http.StatusForbidden)
}

func TestRespondMeeting(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice", auth.Investor)
	inst := env.addUser(t, "inst", auth.Institution)
	repo := meeting.NewRepository(env.db)
	m, err := repo.Add(alice.ID, meeting.Input{Date: "2025-01-01T10:00", Message: "Interested"})
	if err != nil {
		t.Fatalf("add meeting: %v", err)
	}
	instCookie := env.login(t, inst)
	id := strconv.FormatInt(m.ID, 10)

	w := env.get("/manage_meetings/", instCookie)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "alice") {
		t.Error("expected investor on manage page")
	}

	w = env.postForm("/manage_meetings/", url.Values{"id": {id}, "response": {"  "}}, instCookie)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "This field is required.") {
		t.Error("expected required error")
	}

	w = env.postForm("/manage_meetings/", url.Values{"id": {"9999"}, "response": {"ok"}}, instCookie)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Unknown meeting request.") {
		t.Error("expected unknown request error")
	}

	w = env.postForm("/manage_meetings/", url.Values{"id": {id}, "response": {"Monday at 10 works"}}, instCookie)
	assertRedirect(t, w, "/manage_meetings/")

	w = env.get("/investor_dashboard/", env.login(t, alice))
	body := w.Body.String()
	if !strings.Contains(body, "Monday at 10 works") {
		t.Error("expected response on investor dashboard")
	}
	if strings.Contains(body, `class="pending"`) {
		t.Error("request should no longer be pending")
	}
}

func TestManageMeetingsForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice", auth.Investor)
	cookie := env.login(t, alice)

	assertStatus(t, env.get("/manage_meetings/", cookie), http.StatusForbidden)
	w := env.postForm("/manage_meetings/", url.Values{"id": {"1"}, "response": {"x"}}, cookie)
	assertStatus(t, w, http.StatusForbidden)
}
