package property

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(owner_id, address, city, area, rooms, bathrooms, has_courtyard, floor, image, number)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectSQL = `SELECT p.id, p.owner_id, u.username, p.address, p.city,
	p.area, p.rooms, p.bathrooms, p.has_courtyard, p.floor,
	p.image, p.number, p.created_at, p.updated_at
	FROM properties p JOIN users u ON u.id = p.owner_id`

// Insert adds a new property and returns it with its generated ID.
// The owner must exist and be of type owner; number must be unused.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if errs := p.Validate(); errs.Any() {
		return nil, errs
	}

	var ownerType string
	err := r.db.QueryRow("SELECT user_type FROM users WHERE id = ?", p.OwnerID).Scan(&ownerType)
	if err == sql.ErrNoRows || (err == nil && ownerType != "owner") {
		return nil, ErrOwnerNotOwner
	}
	if err != nil {
		return nil, fmt.Errorf("checking owner: %w", err)
	}

	result, err := r.db.Exec(insertSQL,
		p.OwnerID, p.Address, p.City,
		p.Area, p.Rooms, p.Bathrooms, boolToInt(p.HasCourtyard), p.Floor,
		p.Image, p.Number,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNumber, p.Number)
		}
		if strings.Contains(err.Error(), "owner must be an owner") {
			return nil, ErrOwnerNotOwner
		}
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(id int64) (*Property, error) {
	p, err := scanProperty(r.db.QueryRow(selectSQL+" WHERE p.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}
	return p, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	OwnerID         int64  // 0 = any owner
	City            string // case-insensitive substring
	MinRooms        int
	CourtyardOnly   bool
	WithoutContract bool
}

// List returns properties ordered by city then number, optionally filtered.
func (r *Repository) List(opts ListOptions) (properties []*Property, err error) {
	query := selectSQL
	var args []interface{}
	var conditions []string

	if opts.OwnerID != 0 {
		conditions = append(conditions, "p.owner_id = ?")
		args = append(args, opts.OwnerID)
	}
	if city := strings.TrimSpace(opts.City); city != "" {
		conditions = append(conditions, "LOWER(p.city) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(strings.ToLower(city))+"%")
	}
	if opts.MinRooms > 0 {
		conditions = append(conditions, "p.rooms >= ?")
		args = append(args, opts.MinRooms)
	}
	if opts.CourtyardOnly {
		conditions = append(conditions, "p.has_courtyard = 1")
	}
	if opts.WithoutContract {
		conditions = append(conditions, "NOT EXISTS (SELECT 1 FROM contracts c WHERE c.property_id = p.id)")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY p.city, p.number"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// UpdateImage sets the image storage key for a property.
func (r *Repository) UpdateImage(id int64, key string) error {
	result, err := r.db.Exec(
		"UPDATE properties SET image = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		key, id,
	)
	if err != nil {
		return fmt.Errorf("updating image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return nil
}

// Count returns the number of properties.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM properties").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting properties: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
