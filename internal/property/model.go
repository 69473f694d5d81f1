// Package property provides the rental property domain model and data access.
package property

import (
	"errors"
	"strings"
	"time"

	"github.com/evcraddock/emptytohome/internal/form"
)

var (
	ErrNotFound        = errors.New("property not found")
	ErrDuplicateNumber = errors.New("a property with this number already exists")
	ErrOwnerNotOwner   = errors.New("property owner must be an owner user")
	ErrForbidden       = errors.New("not allowed to modify this property")
)

// Property is a listed rental unit.
type Property struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	OwnerUsername string    `json:"owner"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Area          int       `json:"area"` // square meters
	Rooms         int       `json:"rooms"`
	Bathrooms     int       `json:"bathrooms"`
	HasCourtyard  bool      `json:"has_courtyard"`
	Floor         int       `json:"floor"`
	Image         string    `json:"image,omitempty"` // storage key
	Number        string    `json:"number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks the user-supplied fields.
func (p *Property) Validate() form.Errors {
	errs := form.Errors{}
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.Number = strings.TrimSpace(p.Number)

	errs.Required("address", p.Address)
	errs.Required("city", p.City)
	errs.Required("number", p.Number)
	if p.Area < 0 {
		errs.Add("area", "Ensure this value is greater than or equal to 0.")
	}
	if p.Rooms < 0 {
		errs.Add("rooms", "Ensure this value is greater than or equal to 0.")
	}
	if p.Bathrooms < 0 {
		errs.Add("bathrooms", "Ensure this value is greater than or equal to 0.")
	}
	return errs
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var courtyard int
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.OwnerUsername, &p.Address, &p.City,
		&p.Area, &p.Rooms, &p.Bathrooms, &courtyard, &p.Floor,
		&p.Image, &p.Number, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.HasCourtyard = courtyard != 0
	return &p, nil
}
