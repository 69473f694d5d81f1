package web

import (
	"errors"
	"net/http"

	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/payment"
)

type paymentFormData struct {
	Input  payment.Input
	Errors form.Errors
}

// handleAddPaymentPage renders the empty payment method form.
func (s *Server) handleAddPaymentPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r); !ok {
		return
	}
	s.render(w, r, "add_payment_method.html", paymentFormData{})
}

// handleAddPaymentSubmit stores a payment method for the current user.
func (s *Server) handleAddPaymentSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := payment.Input{
		Method:  r.FormValue("payment_method"),
		Details: r.FormValue("details"),
	}

	if _, err := s.payments.Add(user.ID, in); err != nil {
		var errs form.Errors
		if errors.As(err, &errs) {
			s.render(w, r, "add_payment_method.html", paymentFormData{Input: in, Errors: errs})
			return
		}
		serverError(w, r, "adding payment", err)
		return
	}

	http.Redirect(w, r, "/view_payments/", http.StatusSeeOther)
}

type paymentListData struct {
	Payments []*payment.Payment
}

// handleViewPayments lists the current user's payment methods.
func (s *Server) handleViewPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r)
	if !ok {
		return
	}

	payments, err := s.payments.ListByUser(user.ID)
	if err != nil {
		serverError(w, r, "listing payments", err)
		return
	}

	s.render(w, r, "view_payments.html", paymentListData{Payments: payments})
}
