package payment

import (
	"errors"
	"path/filepath"
	"testing"

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

func TestMethods(t *testing.T) {
	if len(Methods) != 8 {
		t.Fatalf("got %d methods, want 8", len(Methods))
	}
	for _, m := range Methods {
		if m.Label() == string(m) {
			t.Errorf("%s has no label", m)
		}
	}
	if Method("bitcoin").IsValid() {
		t.Error("bitcoin should be invalid")
	}
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		in     Input
		fields []string
	}{
		{"valid", Input{Method: "paypal", Details: "id:123"}, nil},
		{"empty", Input{}, []string{"payment_method", "details"}},
		{"whitespace details", Input{Method: "cash", Details: "   "}, []string{"details"}},
		{"unknown method", Input{Method: "bitcoin", Details: "x"}, []string{"payment_method"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.in.Validate()
			if len(errs) != len(tt.fields) {
				t.Fatalf("errors = %v, want %v", errs, tt.fields)
			}
			for _, f := range tt.fields {
				if errs.Get(f) == "" {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}

func TestAddAndListByUser(t *testing.T) {
	repo, users := testRepo(t)
	bob, err := users.Add("bob", "pw", auth.Tenant)
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}
	eve, err := users.Add("eve", "pw", auth.Investor)
	if err != nil {
		t.Fatalf("add eve: %v", err)
	}

	p, err := repo.Add(bob.ID, Input{Method: "paypal", Details: "id:123"})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if p.UserID != bob.ID || p.Method != PayPal || p.Details != "id:123" {
		t.Errorf("payment = %+v", p)
	}
	if _, err := repo.Add(eve.ID, Input{Method: "cash", Details: "on site"}); err != nil {
		t.Fatalf("add eve payment: %v", err)
	}

	mine, err := repo.ListByUser(bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != p.ID {
		t.Errorf("bob payments = %+v", mine)
	}
}

func TestAddInvalid(t *testing.T) {
	repo, users := testRepo(t)
	bob, err := users.Add("bob", "pw", auth.Tenant)
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}

	_, err = repo.Add(bob.ID, Input{Method: "paypal"})
	var errs form.Errors
	if !errors.As(err, &errs) || errs.Get("details") == "" {
		t.Fatalf("err = %v, want details error", err)
	}

	list, err := repo.ListByUser(bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d payments after invalid add", len(list))
	}
}
