package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/meeting"
)

type meetingFormData struct {
	Input  meeting.Input
	Errors form.Errors
}

// handleRequestMeetingPage renders the meeting request form.
func (s *Server) handleRequestMeetingPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r, auth.Investor); !ok {
		return
	}
	s.render(w, r, "request_meeting.html", meetingFormData{})
}

// handleRequestMeetingSubmit stores a meeting request from the current investor.
func (s *Server) handleRequestMeetingSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Investor)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := meeting.Input{
		Date:    r.FormValue("date"),
		Message: r.FormValue("message"),
	}

	if _, err := s.meetings.Add(user.ID, in); err != nil {
		var errs form.Errors
		switch {
		case errors.As(err, &errs):
			s.render(w, r, "request_meeting.html", meetingFormData{Input: in, Errors: errs})
		case errors.Is(err, meeting.ErrNotInvestor):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			serverError(w, r, "adding meeting request", err)
		}
		return
	}

	http.Redirect(w, r, "/investor_dashboard/", http.StatusSeeOther)
}

type manageMeetingsData struct {
	Meetings []*meeting.Request
	ErrorID  int64
	Error    string
}

func (s *Server) renderManageMeetings(w http.ResponseWriter, r *http.Request, errorID int64, msg string) {
	meetings, err := s.meetings.ListAll()
	if err != nil {
		serverError(w, r, "listing meetings", err)
		return
	}
	s.render(w, r, "manage_meetings.html", manageMeetingsData{Meetings: meetings, ErrorID: errorID, Error: msg})
}

// handleManageMeetings lists every meeting request for institution users.
func (s *Server) handleManageMeetings(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r, auth.Institution); !ok {
		return
	}
	s.renderManageMeetings(w, r, 0, "")
}

// handleRespondMeeting records an institution user's answer to one request.
func (s *Server) handleRespondMeeting(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r, auth.Institution); !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		s.renderManageMeetings(w, r, 0, "Unknown meeting request.")
		return
	}

	_, err = s.meetings.SetResponse(id, r.FormValue("response"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/manage_meetings/", http.StatusSeeOther)
	case errors.Is(err, meeting.ErrEmptyResponse):
		s.renderManageMeetings(w, r, id, "This field is required.")
	case errors.Is(err, meeting.ErrNotFound):
		s.renderManageMeetings(w, r, 0, "Unknown meeting request.")
	default:
		serverError(w, r, "responding to meeting", err)
	}
}
