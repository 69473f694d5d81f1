package property

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/storage"
)

// Service provides property business logic.
type Service struct {
	repo   *Repository
	users  *auth.UserStore
	images storage.Store
}

// NewService creates a property service.
func NewService(repo *Repository, users *auth.UserStore, images storage.Store) *Service {
	return &Service{repo: repo, users: users, images: images}
}

// CanManage reports whether u may change p: its owner or any institution user.
func CanManage(u *auth.User, p *Property) bool {
	if u == nil || p == nil {
		return false
	}
	if u.Type == auth.Institution {
		return true
	}
	return u.Type == auth.Owner && p.OwnerID == u.ID
}

// Create resolves ownerUsername and stores p for that owner.
func (s *Service) Create(ownerUsername string, p *Property) (*Property, error) {
	owner, err := s.users.GetByUsername(ownerUsername)
	if err != nil {
		return nil, fmt.Errorf("looking up owner: %w", err)
	}
	if owner.Type != auth.Owner {
		return nil, fmt.Errorf("%w: %s is %s", ErrOwnerNotOwner, owner.Username, owner.Type)
	}

	p.OwnerID = owner.ID
	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// SetImage stores an uploaded image for property id on behalf of actor
// and replaces any previous image.
func (s *Service) SetImage(ctx context.Context, actor *auth.User, id int64, filename string, r io.Reader, size int64, contentType string) (*Property, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, p) {
		return nil, ErrForbidden
	}

	key := storage.NewKey(storage.PropertyImages, filename)
	if err := s.images.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	if err := s.repo.UpdateImage(id, key); err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			slog.Warn("removing orphaned image", "key", key, "err", delErr)
		}
		return nil, err
	}

	if p.Image != "" {
		if err := s.images.Delete(ctx, p.Image); err != nil && !errors.Is(err, storage.ErrNotExist) {
			slog.Warn("removing replaced image", "key", p.Image, "err", err)
		}
	}

	return s.repo.GetByID(id)
}
