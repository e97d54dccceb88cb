package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tabula/pkg/archive"
	"github.com/matzehuels/tabula/pkg/buildinfo"
	"github.com/matzehuels/tabula/pkg/errors"
	tio "github.com/matzehuels/tabula/pkg/io"
	"github.com/matzehuels/tabula/pkg/pipeline"
	"github.com/matzehuels/tabula/pkg/series"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// seriesResponse is one loaded series with its x-values and type.
type seriesResponse struct {
	series.Target
	Xs   []series.X `json:"xs"`
	Type string     `json:"type,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if opts.Path != "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "path sources are not accepted over HTTP"))
		return
	}
	s.cfg.Apply(&opts)

	s.mu.Lock()
	result, err := s.runner.Execute(r.Context(), opts)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("convert failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listSeries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := tio.FromStore(s.runner.Store)
	s.mu.Unlock()

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := tio.WriteCSV(out.Targets, w); err != nil {
			s.logger.Error("write csv", "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := tio.WriteJSON(out, w); err != nil {
		s.logger.Error("write json", "error", err)
	}
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	t, ok := s.runner.Store.Target(id)
	xs, _ := s.runner.Store.Xs(id)
	typ, _ := s.runner.Store.Type(t.ID)
	s.mu.Unlock()

	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "series %q is not loaded", id))
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Target: t, Xs: xs, Type: typ})
}

func (s *Server) unloadSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.runner.Store.Target(id)
	if ok {
		s.runner.Unload(id)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "series %q is not loaded", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getArchived(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "archive is not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	t, err := s.archive.LatestTarget(r.Context(), id)
	if stderrors.Is(err, archive.ErrNotFound) {
		writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "series %q is not archived", id))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidMimeType,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMalformedTabularData, errors.ErrCodeUndefinedXAxis:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeRetrievalFailure, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
