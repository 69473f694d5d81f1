package meeting

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/db"
	"github.com/evcraddock/emptytohome/internal/form"
)

func testRepo(t *testing.T) (*Repository, *auth.UserStore) {
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
	return NewRepository(d), auth.NewUserStore(d)
}

func addUser(t *testing.T, users *auth.UserStore, name string, ut auth.UserType) *auth.User {
	t.Helper()
	u, err := users.Add(name, "pw", ut)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	return u
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-01-01T10:00", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"2025-01-01T10:00:30", time.Date(2025, 1, 1, 10, 0, 30, 0, time.UTC), false},
		{"2025-01-01 10:00", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"01/02/2025", time.Time{}, true},
		{"2025-13-01", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInputValidate(t *testing.T) {
	in := Input{Date: "tomorrow", Message: ""}
	_, errs := in.Validate()
	if errs.Get("date") != "Enter a valid date/time." {
		t.Errorf("date error = %q", errs.Get("date"))
	}
	if errs.Get("message") != "This field is required." {
		t.Errorf("message error = %q", errs.Get("message"))
	}

	ok := Input{Date: "2025-01-01T10:00", Message: " Interested "}
	if _, errs := ok.Validate(); errs.Any() {
		t.Errorf("unexpected errors: %v", errs)
	}
	if ok.Message != "Interested" {
		t.Errorf("message = %q, want trimmed", ok.Message)
	}
}

func TestAddAndList(t *testing.T) {
	repo, users := testRepo(t)
	alice := addUser(t, users, "alice", auth.Investor)
	ivan := addUser(t, users, "ivan", auth.Investor)

	m, err := repo.Add(alice.ID, Input{Date: "2025-01-01T10:00", Message: "Interested"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.InvestorUsername != "alice" || m.Message != "Interested" || !m.Pending() {
		t.Errorf("request = %+v", m)
	}
	if !m.Date.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", m.Date)
	}

	if _, err := repo.Add(ivan.ID, Input{Date: "2024-06-01", Message: "Earlier"}); err != nil {
		t.Fatalf("add ivan: %v", err)
	}

	mine, err := repo.ListByInvestor(alice.ID)
	if err != nil {
		t.Fatalf("list by investor: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != m.ID {
		t.Errorf("alice requests = %+v", mine)
	}

	all, err := repo.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].InvestorUsername != "ivan" {
		t.Errorf("all requests = %+v", all)
	}
}

func TestAddRequiresInvestor(t *testing.T) {
	repo, users := testRepo(t)
	owner := addUser(t, users, "olga", auth.Owner)

	_, err := repo.Add(owner.ID, Input{Date: "2025-01-01", Message: "hi"})
	if !errors.Is(err, ErrNotInvestor) {
		t.Fatalf("err = %v, want ErrNotInvestor", err)
	}

	_, err = repo.Add(owner.ID, Input{})
	var errs form.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("err = %v, want form.Errors", err)
	}
}

func TestSetResponse(t *testing.T) {
	repo, users := testRepo(t)
	alice := addUser(t, users, "alice", auth.Investor)
	m, err := repo.Add(alice.ID, Input{Date: "2025-01-01T10:00", Message: "Interested"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	n, err := repo.CountPending()
	if err != nil || n != 1 {
		t.Fatalf("pending = %d, %v", n, err)
	}

	if _, err := repo.SetResponse(m.ID, "  "); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("empty response err = %v", err)
	}

	got, err := repo.SetResponse(m.ID, "See you at 10")
	if err != nil {
		t.Fatalf("set response: %v", err)
	}
	if got.Response != "See you at 10" || got.Pending() {
		t.Errorf("request = %+v", got)
	}

	n, err = repo.CountPending()
	if err != nil || n != 0 {
		t.Errorf("pending = %d, %v", n, err)
	}

	if _, err := repo.SetResponse(9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}
