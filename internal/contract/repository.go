package contract

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repository provides data access for contracts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a contract repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectSQL = `SELECT c.id, c.property_id, p.number, p.address, p.owner_id,
	c.contract_type, c.document, COALESCE(c.uploaded_by, 0), COALESCE(u.username, ''), c.created_at
	FROM contracts c
	JOIN properties p ON p.id = c.property_id
	LEFT JOIN users u ON u.id = c.uploaded_by`

// Insert stores a contract. A property that already has one yields ErrAlreadyExists.
func (r *Repository) Insert(propertyID int64, t Type, document string, uploadedBy int64) (*Contract, error) {
	var uploader interface{}
	if uploadedBy != 0 {
		uploader = uploadedBy
	}

	result, err := r.db.Exec(
		"INSERT INTO contracts (property_id, contract_type, document, uploaded_by) VALUES (?, ?, ?, ?)",
		propertyID, string(t), document, uploader,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: property %d", ErrAlreadyExists, propertyID)
		}
		return nil, fmt.Errorf("inserting contract: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a contract by its ID.
func (r *Repository) GetByID(id int64) (*Contract, error) {
	c, err := scanContract(r.db.QueryRow(selectSQL+" WHERE c.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying contract %d: %w", id, err)
	}
	return c, nil
}

// ExistsForProperty reports whether the property already has a contract.
func (r *Repository) ExistsForProperty(propertyID int64) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM contracts WHERE property_id = ?", propertyID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking contract for property %d: %w", propertyID, err)
	}
	return n > 0, nil
}

// ListOptions controls filtering for List. Zero values match everything.
type ListOptions struct {
	UploadedBy int64
	OwnerID    int64 // owner of the contracted property
}

// List returns contracts, newest first.
func (r *Repository) List(opts ListOptions) (contracts []*Contract, err error) {
	query := selectSQL
	var args []interface{}
	var conditions []string

	if opts.UploadedBy != 0 {
		conditions = append(conditions, "c.uploaded_by = ?")
		args = append(args, opts.UploadedBy)
	}
	if opts.OwnerID != 0 {
		conditions = append(conditions, "p.owner_id = ?")
		args = append(args, opts.OwnerID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contracts: %w", err)
	}

	return contracts, nil
}

// Count returns the number of contracts.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM contracts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contracts: %w", err)
	}
	return n, nil
}
