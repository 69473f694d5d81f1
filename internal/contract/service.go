package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/property"
	"github.com/evcraddock/emptytohome/internal/storage"
)

// Service provides contract upload and download rules.
type Service struct {
	repo       *Repository
	properties *property.Repository
	documents  storage.Store
}

// NewService creates a contract service.
func NewService(repo *Repository, properties *property.Repository, documents storage.Store) *Service {
	return &Service{repo: repo, properties: properties, documents: documents}
}

// CanUpload reports whether u's role may upload contracts at all.
func CanUpload(u *auth.User) bool {
	return u.Is(auth.Tenant, auth.Owner, auth.Institution)
}

// CanView reports whether u may download c: the uploader, the property's
// owner, or an institution user.
func CanView(u *auth.User, c *Contract) bool {
	if u == nil || c == nil {
		return false
	}
	switch {
	case u.Type == auth.Institution:
		return true
	case c.UploadedByID != 0 && c.UploadedByID == u.ID:
		return true
	case u.Type == auth.Owner && c.PropertyOwnerID == u.ID:
		return true
	}
	return false
}

// Choices returns the properties u may attach a new contract to.
func (s *Service) Choices(u *auth.User) ([]*property.Property, error) {
	if !CanUpload(u) {
		return nil, ErrForbidden
	}
	opts := property.ListOptions{WithoutContract: true}
	if u.Type == auth.Owner {
		opts.OwnerID = u.ID
	}
	return s.properties.List(opts)
}

const invalidProperty = "Select a valid choice. That choice is not one of the available choices."

// Upload validates in, stores the document read from r, and records the
// contract as uploaded by actor. Field problems come back as form.Errors.
func (s *Service) Upload(ctx context.Context, actor *auth.User, in Input, r io.Reader, size int64) (*Contract, error) {
	if !CanUpload(actor) {
		return nil, ErrForbidden
	}

	propertyID, errs := in.Validate()
	if errs.Any() {
		return nil, errs
	}

	p, err := s.properties.GetByID(propertyID)
	if errors.Is(err, property.ErrNotFound) {
		return nil, form.Errors{"property": invalidProperty}
	}
	if err != nil {
		return nil, err
	}
	if actor.Type == auth.Owner && p.OwnerID != actor.ID {
		return nil, form.Errors{"property": invalidProperty}
	}

	exists, err := s.repo.ExistsForProperty(p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, form.Errors{"property": "Contract with this Property already exists."}
	}

	key := storage.NewKey(storage.Contracts, in.Filename)
	if err := s.documents.Put(ctx, key, r, size, "application/pdf"); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	c, err := s.repo.Insert(p.ID, Type(in.Type), key, actor.ID)
	if err != nil {
		if delErr := s.documents.Delete(ctx, key); delErr != nil {
			slog.Warn("removing orphaned document", "key", key, "err", delErr)
		}
		if errors.Is(err, ErrAlreadyExists) {
			return nil, form.Errors{"property": "Contract with this Property already exists."}
		}
		return nil, err
	}

	slog.Info("contract uploaded", "contract", c.ID, "property", p.Number, "user", actor.Username)
	return c, nil
}

// Open returns the document of contract id for actor along with its
// download name. A missing contract, a missing document and a contract
// actor may not see all yield ErrNotFound.
func (s *Service) Open(ctx context.Context, actor *auth.User, id int64) (io.ReadCloser, string, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	if !CanView(actor, c) {
		return nil, "", fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	rc, err := s.documents.Open(ctx, c.Document)
	if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, "", fmt.Errorf("%w: document for %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening document: %w", err)
	}
	return rc, c.Filename(), nil
}

// ForUser returns the contracts shown on u's dashboard.
func (s *Service) ForUser(u *auth.User) ([]*Contract, error) {
	switch {
	case u.Is(auth.Institution):
		return s.repo.List(ListOptions{})
	case u.Is(auth.Owner):
		return s.repo.List(ListOptions{OwnerID: u.ID})
	default:
		return s.repo.List(ListOptions{UploadedBy: u.ID})
	}
}
