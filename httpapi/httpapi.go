// Package httpapi exposes the version-history HTTP contract: four
// endpoints calling straight into internal/version and internal/delta,
// with no business logic of its own. Routed with github.com/go-chi/chi/v5.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/delta"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/version"
	"github.com/go-chi/chi/v5"
)

// Server wires the version manager and delta engine into the four
// version-history endpoints.
type Server struct {
	versions *version.Manager
	kind     registry.ResourceKind
}

// NewServer builds a Server resolving every word against kind (typically
// registry.KindDictionary).
func NewServer(versions *version.Manager, kind registry.ResourceKind) *Server {
	return &Server{versions: versions, kind: kind}
}

// Routes mounts the four contract endpoints onto r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/{word}/versions", s.handleListVersions)
	r.Get("/{word}/versions/{version}", s.handleGetVersion)
	r.Get("/{word}/diff", s.handleDiff)
	r.Post("/{word}/rollback", s.handleRollback)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	summaries, err := s.versions.ListVersions(r.Context(), word, s.kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	ver := chi.URLParam(r, "version")

	record, err := s.versions.GetByVersion(r.Context(), word, s.kind, ver)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "both from and to query parameters are required")
		return
	}

	fromRecord, err := s.versions.GetByVersion(r.Context(), word, s.kind, from)
	if err != nil {
		writeError(w, err)
		return
	}
	toRecord, err := s.versions.GetByVersion(r.Context(), word, s.kind, to)
	if err != nil {
		writeError(w, err)
		return
	}

	changes, err := delta.ComputeDiffBetween(from, to, fromRecord.ContentInline, toRecord.ContentInline)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	target := r.URL.Query().Get("version")
	if target == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "version query parameter is required")
		return
	}

	record, err := s.versions.Rollback(r.Context(), word, s.kind, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// writeError maps the core error taxonomy onto HTTP status codes:
// VersionNotFound→404, delta/rollback-content faults→422, everything
// else→500.
func writeError(w http.ResponseWriter, err error) {
	var coreErr *coreerrors.CoreError
	if !errors.As(err, &coreErr) {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch coreErr.Code {
	case coreerrors.ErrCodeVersionNotFound:
		writeJSONError(w, http.StatusNotFound, coreErr.Message)
	case coreerrors.ErrCodeDeltaApply, coreerrors.ErrCodeChainBroken, coreerrors.ErrCodeConflictingVersion:
		writeJSONError(w, http.StatusUnprocessableEntity, coreErr.Message)
	default:
		writeJSONError(w, http.StatusInternalServerError, coreErr.Message)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
