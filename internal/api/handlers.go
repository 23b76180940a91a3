package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/query"
	"github.com/dyluth/classify/pkg/catalog"
)

// ClassifyRequest is the request body for POST /classify. Content is either
// literal text or an http(s) URL whose page text is classified.
type ClassifyRequest struct {
	Content string `json:"content"`
}

// ClassifyResponse is returned by POST /classify.
type ClassifyResponse struct {
	Success   bool            `json:"success"`
	Content   *catalog.Record `json:"content,omitempty"`
	Duplicate bool            `json:"duplicate,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// TagsResponse is returned by GET /tags.
type TagsResponse struct {
	Success bool     `json:"success"`
	Tags    []string `json:"tags"`
	Count   int      `json:"count"`
}

// ContentListResponse is returned by GET /content.
type ContentListResponse struct {
	Success bool              `json:"success"`
	Content []*catalog.Record `json:"content"`
	Count   int               `json:"count"`
}

// ContentResponse is returned by GET /content/{id}.
type ContentResponse struct {
	Success bool            `json:"success"`
	Content *catalog.Record `json:"content"`
}

// DeleteResponse is returned by DELETE /content/{id}.
type DeleteResponse struct {
	Success bool                       `json:"success"`
	Result  *orchestrator.DeleteResult `json:"result"`
	Warning string                     `json:"warning,omitempty"`
}

// ReindexResponse is returned by POST /reindex.
type ReindexResponse struct {
	Success bool                        `json:"success"`
	Result  *orchestrator.ReindexResult `json:"result"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.engine.Classify(r.Context(), req.Content)
	switch {
	case err == nil && outcome.Duplicate:
		writeJSON(w, http.StatusConflict, ClassifyResponse{Success: true, Content: outcome.Record, Duplicate: true})
	case err == nil:
		writeJSON(w, http.StatusCreated, ClassifyResponse{Success: true, Content: outcome.Record})
	case orchestrator.IsPartialWrite(err) && outcome != nil:
		writeJSON(w, http.StatusCreated, ClassifyResponse{Success: true, Content: outcome.Record, Warning: err.Error()})
	default:
		s.writeEngineError(w, r, err)
	}
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.query.AllTags(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Success: true, Tags: tags, Count: len(tags)})
}

// listContent returns records carrying any of ?tags=a,b. Without tags it
// returns the most recent records, capped by ?limit= (default 50).
func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	tags := query.ParseTagList(r.URL.Query().Get("tags"))

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.query.Search(r.Context(), query.Filter{Tags: tags, Limit: limit})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ContentListResponse{Success: true, Content: records, Count: len(records)})
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.query.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContentResponse{Success: true, Content: rec})
}

func (s *Server) getContentText(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, found, err := s.query.ContentBody(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if !found {
		s.writeEngineError(w, r, &query.NotFoundError{ID: id})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.engine.Delete(r.Context(), id)
	switch {
	case err == nil:
		// A missing record is a successful no-op with Found false
		writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Result: result})
	case orchestrator.IsPartialWrite(err) && result != nil:
		writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Result: result, Warning: err.Error()})
	default:
		s.writeEngineError(w, r, err)
	}
}

func (s *Server) reindex(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Reindex(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReindexResponse{Success: true, Result: result})
}

// statusFor maps engine and query errors to HTTP status codes.
func statusFor(err error) int {
	if query.IsNotFound(err) {
		return http.StatusNotFound
	}
	if kind, ok := orchestrator.KindOf(err); ok {
		switch kind {
		case orchestrator.KindInvalidInput:
			return http.StatusBadRequest
		case orchestrator.KindFetch:
			return http.StatusUnprocessableEntity
		case orchestrator.KindClassifier:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	msg := err.Error()
	if catalog.IsBackend(err) {
		// Backend errors can carry connection details
		msg = "storage backend unavailable"
		if kind, ok := orchestrator.KindOf(err); ok {
			msg = strings.ReplaceAll(string(kind), "_", " ") + " failed: " + msg
		}
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}
