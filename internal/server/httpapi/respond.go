package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/blob"
	"github.com/go-chi/chi/v5"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errorStatus = []struct {
	err    error
	status int
}{
	{common.ErrValidation, http.StatusBadRequest},
	{common.ErrInvalidToken, http.StatusBadRequest},
	{common.ErrDuplicateAccount, http.StatusConflict},
	{common.ErrDuplicateAlumni, http.StatusConflict},
	{common.ErrAdminExists, http.StatusConflict},
	{common.ErrNotAuthorized, http.StatusForbidden},
	{common.ErrInvalidCredentials, http.StatusUnauthorized},
	{common.ErrNotVerified, http.StatusForbidden},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrSessionRevoked, http.StatusUnauthorized},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
	{common.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{common.ErrorNotFound, http.StatusNotFound},
	{blob.ErrPresignNotSupported, http.StatusNotImplemented},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError maps the error taxonomy onto HTTP. Unknown errors are logged
// and answered with a bare 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: common.ErrorInternal.Error()})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", common.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", common.ErrValidation)
	}
	return id, nil
}
