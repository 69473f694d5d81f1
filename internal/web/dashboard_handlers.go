package web

import (
	"net/http"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/contract"
	"github.com/evcraddock/emptytohome/internal/meeting"
	"github.com/evcraddock/emptytohome/internal/payment"
	"github.com/evcraddock/emptytohome/internal/property"
)

type institutionDashboardData struct {
	Users           int
	Properties      []*property.Property
	Contracts       int
	PendingMeetings int
}

// handleInstitutionDashboard shows system-wide counts and every property.
func (s *Server) handleInstitutionDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r, auth.Institution); !ok {
		return
	}

	var data institutionDashboardData
	var err error
	if data.Users, err = s.users.Count(); err != nil {
		serverError(w, r, "counting users", err)
		return
	}
	if data.Properties, err = s.properties.List(property.ListOptions{}); err != nil {
		serverError(w, r, "listing properties", err)
		return
	}
	if data.Contracts, err = s.contracts.Count(); err != nil {
		serverError(w, r, "counting contracts", err)
		return
	}
	if data.PendingMeetings, err = s.meetings.CountPending(); err != nil {
		serverError(w, r, "counting meetings", err)
		return
	}

	s.render(w, r, "institution_dashboard.html", data)
}

type ownerDashboardData struct {
	Properties []*property.Property
	Contracts  []*contract.Contract
}

// handleOwnerDashboard shows the owner's properties and their contracts.
func (s *Server) handleOwnerDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Owner)
	if !ok {
		return
	}

	props, err := s.properties.List(property.ListOptions{OwnerID: user.ID})
	if err != nil {
		serverError(w, r, "listing properties", err)
		return
	}
	contracts, err := s.contractSv.ForUser(user)
	if err != nil {
		serverError(w, r, "listing contracts", err)
		return
	}

	s.render(w, r, "owner_dashboard.html", ownerDashboardData{Properties: props, Contracts: contracts})
}

type tenantDashboardData struct {
	Contracts []*contract.Contract
	Payments  []*payment.Payment
}

// handleTenantDashboard shows the tenant's contracts and payment methods.
func (s *Server) handleTenantDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Tenant)
	if !ok {
		return
	}

	contracts, err := s.contractSv.ForUser(user)
	if err != nil {
		serverError(w, r, "listing contracts", err)
		return
	}
	payments, err := s.payments.ListByUser(user.ID)
	if err != nil {
		serverError(w, r, "listing payments", err)
		return
	}

	s.render(w, r, "tenant_dashboard.html", tenantDashboardData{Contracts: contracts, Payments: payments})
}

type investorDashboardData struct {
	Meetings []*meeting.Request
}

// handleInvestorDashboard lists the investor's own meeting requests.
func (s *Server) handleInvestorDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Investor)
	if !ok {
		return
	}

	meetings, err := s.meetings.ListByInvestor(user.ID)
	if err != nil {
		serverError(w, r, "listing meetings", err)
		return
	}

	s.render(w, r, "investor_dashboard.html", investorDashboardData{Meetings: meetings})
}
