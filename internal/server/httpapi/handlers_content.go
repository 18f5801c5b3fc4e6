package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
)

type dashboardResponse struct {
	AdminMessages     []messageView `json:"admin_messages"`
	ClassmateMessages []messageView `json:"classmate_messages"`
	UpcomingEvents    []eventView   `json:"upcoming_events"`
	User              *userView     `json:"user"`
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	d, err := s.content.Dashboard(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		AdminMessages:     viewMessages(d.AdminMessages),
		ClassmateMessages: viewMessages(d.ClassmateMessages),
		UpcomingEvents:    viewEvents(d.UpcomingEvents),
		User:              viewUser(user),
	})
}

func (s *HTTPServer) handleListMessages(w http.ResponseWriter, r *http.Request) {
	list, err := s.content.ListMessages(r.Context(), userFrom(r.Context()), r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewMessages(list))
}

type messageRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

func (s *HTTPServer) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.content.CreateMessage(r.Context(), userFrom(r.Context()), services.MessageInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewMessage(m))
}

func (s *HTTPServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.content.ListEvents(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewEvents(list))
}

type eventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
}

// parseEventDate accepts RFC 3339 or the "2006-01-02T15:04" form sent by
// datetime-local inputs.
func parseEventDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q is not a valid date-time", common.ErrValidation, v)
}

func (s *HTTPServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseEventDate(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ev, err := s.content.CreateEvent(r.Context(), userFrom(r.Context()), services.EventInput{
		Title: req.Title, Description: req.Description, Date: date, Location: req.Location,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewEvent(ev))
}

func (s *HTTPServer) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	list, err := s.content.ListFAQs(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFAQs(list))
}

type faqRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *HTTPServer) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.content.CreateFAQ(r.Context(), userFrom(r.Context()), services.FAQInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewFAQ(f))
}
