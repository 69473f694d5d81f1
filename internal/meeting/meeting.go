// Package meeting handles meeting requests from investors and their answers.
package meeting

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/emptytohome/internal/form"
)

var (
	ErrNotFound      = errors.New("meeting request not found")
	ErrNotInvestor   = errors.New("meeting requester must be an investor user")
	ErrEmptyResponse = errors.New("response is required")
)

// DateLayouts are the accepted date formats, most specific first.
// The first matches an HTML datetime-local input.
var DateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Request is a meeting requested by an investor.
type Request struct {
	ID               int64     `json:"id"`
	InvestorID       int64     `json:"investor_id"`
	InvestorUsername string    `json:"investor"`
	Date             time.Time `json:"date"`
	Message          string    `json:"message"`
	Response         string    `json:"response"`
	CreatedAt        time.Time `json:"created_at"`
}

// Pending reports whether the request has not been answered.
func (r *Request) Pending() bool {
	return r.Response == ""
}

// Input is a submitted meeting request form.
type Input struct {
	Date    string
	Message string
}

// Validate checks the submitted fields and returns the parsed date.
func (in *Input) Validate() (time.Time, form.Errors) {
	errs := form.Errors{}
	in.Date = strings.TrimSpace(in.Date)
	in.Message = strings.TrimSpace(in.Message)

	var date time.Time
	errs.Required("date", in.Date)
	if in.Date != "" {
		d, err := ParseDate(in.Date)
		if err != nil {
			errs.Add("date", "Enter a valid date/time.")
		}
		date = d
	}
	errs.Required("message", in.Message)
	return date, errs
}

// ParseDate parses s with the first matching layout in DateLayouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Repository provides data access for meeting requests.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a meeting request repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectSQL = `SELECT m.id, m.investor_id, u.username, m.date, m.message, m.response, m.created_at
	FROM meeting_requests m JOIN users u ON u.id = m.investor_id`

func scanRequest(row interface{ Scan(...interface{}) error }) (*Request, error) {
	var m Request
	if err := row.Scan(&m.ID, &m.InvestorID, &m.InvestorUsername, &m.Date, &m.Message, &m.Response, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Add validates in and stores it as a request from investorID with no response.
func (r *Repository) Add(investorID int64, in Input) (*Request, error) {
	date, errs := in.Validate()
	if errs.Any() {
		return nil, errs
	}

	var userType string
	err := r.db.QueryRow("SELECT user_type FROM users WHERE id = ?", investorID).Scan(&userType)
	if err == sql.ErrNoRows || (err == nil && userType != "investor") {
		return nil, ErrNotInvestor
	}
	if err != nil {
		return nil, fmt.Errorf("checking investor: %w", err)
	}

	result, err := r.db.Exec(
		"INSERT INTO meeting_requests (investor_id, date, message) VALUES (?, ?, ?)",
		investorID, date, in.Message,
	)
	if err != nil {
		if strings.Contains(err.Error(), "must be an investor") {
			return nil, ErrNotInvestor
		}
		return nil, fmt.Errorf("inserting meeting request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetByID(id)
}

// GetByID returns a meeting request by its ID.
func (r *Repository) GetByID(id int64) (*Request, error) {
	m, err := scanRequest(r.db.QueryRow(selectSQL+" WHERE m.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying meeting request %d: %w", id, err)
	}
	return m, nil
}

// ListByInvestor returns the requests made by one investor, soonest first.
func (r *Repository) ListByInvestor(investorID int64) ([]*Request, error) {
	return r.list(selectSQL+" WHERE m.investor_id = ? ORDER BY m.date, m.id", investorID)
}

// ListAll returns every request, soonest first.
func (r *Repository) ListAll() ([]*Request, error) {
	return r.list(selectSQL + " ORDER BY m.date, m.id")
}

func (r *Repository) list(query string, args ...interface{}) (requests []*Request, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing meeting requests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		m, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning meeting request: %w", err)
		}
		requests = append(requests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meeting requests: %w", err)
	}
	return requests, nil
}

// SetResponse records the answer to request id.
func (r *Repository) SetResponse(id int64, response string) (*Request, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrEmptyResponse
	}

	result, err := r.db.Exec("UPDATE meeting_requests SET response = ? WHERE id = ?", response, id)
	if err != nil {
		return nil, fmt.Errorf("updating meeting request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r.GetByID(id)
}

// CountPending returns the number of unanswered requests.
func (r *Repository) CountPending() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM meeting_requests WHERE response = ''").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending meeting requests: %w", err)
	}
	return n, nil
}
