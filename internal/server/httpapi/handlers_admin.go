package httpapi

import (
	"fmt"
	"net/http"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
)

func (s *HTTPServer) handleListAlumni(w http.ResponseWriter, r *http.Request) {
	list, err := s.roster.ListAlumni(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAlumni(list))
}

type alumniRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	GraduationYear *int   `json:"graduation_year"`
	Company        string `json:"company"`
	Position       string `json:"position"`
}

func (s *HTTPServer) handleAddAlumni(w http.ResponseWriter, r *http.Request) {
	var req alumniRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.roster.AddAlumni(r.Context(), userFrom(r.Context()), services.AlumniInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAlumnus(a))
}

type alumniPatch struct {
	IsActive *bool `json:"is_active"`
}

func (s *HTTPServer) handleSetAlumniActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req alumniPatch
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		s.writeError(w, r, fmt.Errorf("%w: is_active is required", common.ErrValidation))
		return
	}
	a, err := s.roster.SetActive(r.Context(), userFrom(r.Context()), id, *req.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAlumnus(a))
}
