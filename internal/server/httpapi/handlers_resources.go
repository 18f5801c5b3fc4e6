package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
)

func (s *HTTPServer) handleListResources(w http.ResponseWriter, r *http.Request) {
	list, err := s.resources.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewResources(list))
}

// handleUploadResource takes a multipart form with title, description and
// a single "file" part.
func (s *HTTPServer) handleUploadResource(w http.ResponseWriter, r *http.Request) {
	// room for the form fields around the file
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, common.ErrFileTooLarge)
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: expected a multipart form: %v", common.ErrValidation, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: a file is required", common.ErrValidation))
		return
	}
	defer file.Close()

	res, err := s.resources.Upload(r.Context(), userFrom(r.Context()), services.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewResource(res))
}

func (s *HTTPServer) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.resources.Delete(r.Context(), userFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDownloadResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, body, err := s.resources.Open(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()

	ct := mime.TypeByExtension("." + res.FileType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	if res.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(res.FileSize, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Warn(r.Context(), "download interrupted", "id", id, "error", err)
	}
}

func (s *HTTPServer) handleResourceLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	url, err := s.resources.DownloadURL(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
