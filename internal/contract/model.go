// Package contract manages rental contracts and their stored documents.
package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/storage"
)

// Type is the kind of rental contract.
type Type string

const (
	FourPlusFour Type = "4+4"
	Student      Type = "student"
)

// ValidTypes is the set of allowed contract types.
var ValidTypes = []Type{FourPlusFour, Student}

// IsValid checks if a contract type is recognized.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the contract type.
func (t Type) Label() string {
	switch t {
	case FourPlusFour:
		return "4+4"
	case Student:
		return "Student"
	default:
		return string(t)
	}
}

var (
	ErrNotFound      = errors.New("contract not found")
	ErrAlreadyExists = errors.New("property already has a contract")
	ErrForbidden     = errors.New("not allowed to upload contracts")
)

// Contract binds a stored document to a property.
type Contract struct {
	ID              int64     `json:"id"`
	PropertyID      int64     `json:"property_id"`
	PropertyNumber  string    `json:"property_number"`
	PropertyAddress string    `json:"property_address"`
	PropertyOwnerID int64     `json:"property_owner_id"`
	Type            Type      `json:"contract_type"`
	Document        string    `json:"document"` // storage key
	UploadedByID    int64     `json:"uploaded_by_id,omitempty"`
	UploadedBy      string    `json:"uploaded_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filename is the name the document is downloaded as.
func (c *Contract) Filename() string {
	return storage.Basename(c.Document)
}

// Input is a submitted contract upload form.
type Input struct {
	PropertyID string
	Type       string
	Filename   string // empty when no document was attached
}

// Validate checks the submitted fields and returns the parsed property ID.
func (in Input) Validate() (int64, form.Errors) {
	errs := form.Errors{}

	var propertyID int64
	errs.Required("property", in.PropertyID)
	if v := strings.TrimSpace(in.PropertyID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			errs.Add("property", "Select a valid choice. That choice is not one of the available choices.")
		}
		propertyID = id
	}

	errs.Required("contract_type", in.Type)
	if v := strings.TrimSpace(in.Type); v != "" && !Type(v).IsValid() {
		errs.Add("contract_type", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v))
	}

	if strings.TrimSpace(in.Filename) == "" {
		errs.Add("document", "This field is required.")
	}

	return propertyID, errs
}

func scanContract(row interface{ Scan(...interface{}) error }) (*Contract, error) {
	var c Contract
	var contractType string
	err := row.Scan(
		&c.ID, &c.PropertyID, &c.PropertyNumber, &c.PropertyAddress, &c.PropertyOwnerID,
		&contractType, &c.Document, &c.UploadedByID, &c.UploadedBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = Type(contractType)
	return &c, nil
}
