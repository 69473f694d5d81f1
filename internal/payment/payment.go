// Package payment stores the payment methods users register.
package payment

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/emptytohome/internal/form"
)

// Method is a supported payment method.
type Method string

const (
	CreditCard   Method = "credit_card"
	DebitCard    Method = "debit_card"
	PayPal       Method = "paypal"
	BankTransfer Method = "bank_transfer"
	Satispay     Method = "satispay"
	ApplePay     Method = "apple_pay"
	GooglePay    Method = "google_pay"
	Cash         Method = "cash"
)

// Methods lists every supported method in display order.
var Methods = []Method{CreditCard, DebitCard, PayPal, BankTransfer, Satispay, ApplePay, GooglePay, Cash}

// IsValid checks if a payment method is recognized.
func (m Method) IsValid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the method.
func (m Method) Label() string {
	switch m {
	case CreditCard:
		return "Credit card"
	case DebitCard:
		return "Debit card"
	case PayPal:
		return "PayPal"
	case BankTransfer:
		return "Bank transfer"
	case Satispay:
		return "Satispay"
	case ApplePay:
		return "Apple Pay"
	case GooglePay:
		return "Google Pay"
	case Cash:
		return "Cash"
	default:
		return string(m)
	}
}

// Payment is a payment method registered by a user.
type Payment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Method    Method    `json:"payment_method"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Input is a submitted payment method form.
type Input struct {
	Method  string
	Details string
}

// Validate checks the submitted fields.
func (in *Input) Validate() form.Errors {
	errs := form.Errors{}
	in.Method = strings.TrimSpace(in.Method)
	in.Details = strings.TrimSpace(in.Details)

	errs.Required("payment_method", in.Method)
	if in.Method != "" && !Method(in.Method).IsValid() {
		errs.Add("payment_method", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", in.Method))
	}
	errs.Required("details", in.Details)
	return errs
}

// Repository provides data access for payments.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a payment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add validates in and stores it for userID.
func (r *Repository) Add(userID int64, in Input) (*Payment, error) {
	if errs := in.Validate(); errs.Any() {
		return nil, errs
	}

	result, err := r.db.Exec(
		"INSERT INTO payments (user_id, payment_method, details) VALUES (?, ?, ?)",
		userID, in.Method, in.Details,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var p Payment
	var method string
	err = r.db.QueryRow(
		"SELECT id, user_id, payment_method, details, created_at FROM payments WHERE id = ?", id,
	).Scan(&p.ID, &p.UserID, &method, &p.Details, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading payment %d: %w", id, err)
	}
	p.Method = Method(method)
	return &p, nil
}

// ListByUser returns the payments of one user, newest first.
func (r *Repository) ListByUser(userID int64) (payments []*Payment, err error) {
	rows, err := r.db.Query(
		"SELECT id, user_id, payment_method, details, created_at FROM payments WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var p Payment
		var method string
		if err := rows.Scan(&p.ID, &p.UserID, &method, &p.Details, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		p.Method = Method(method)
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}
