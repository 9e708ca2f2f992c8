package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/app/archive"
	"github.com/PabloGalante/symbiotic-sonnet/internal/app/generation"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

const maxRequestBytes = 1 << 20

type Server struct {
	gen     *generation.Service
	archive *archive.Service
}

func NewServer(gen *generation.Service, archiveSvc *archive.Service) http.Handler {
	s := &Server{gen: gen, archive: archiveSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/generate → one line of the poem (POST)
	mux.HandleFunc("/api/generate", s.handleGenerate)

	// /api/poems      → POST: archive, GET: list
	// /api/poems/{id} → GET: one poem
	mux.HandleFunc("/api/poems", s.handlePoems)
	mux.HandleFunc("/api/poems/", s.handlePoemWithID)

	return chainMiddlewares(mux,
		withCORS,
		withRecover,
		withLogging,
		withRequestID,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

// lineNumber and history are pointers so absent or null values can be
// told apart from 0 and [].
type generateRequest struct {
	Theme      string    `json:"theme"`
	LineNumber *int      `json:"lineNumber"`
	History    *[]string `json:"history"`
	APIKey     string    `json:"apiKey,omitempty"`
}

type savePoemRequest struct {
	Theme string              `json:"theme"`
	Lines []domain.LineRecord `json:"lines"`
}

type poemResponse struct {
	ID        string              `json:"id"`
	Theme     string              `json:"theme"`
	Kind      string              `json:"kind"`
	Lines     []domain.LineRecord `json:"lines"`
	CreatedAt time.Time           `json:"createdAt"`
}

type listPoemsResponse struct {
	Poems []poemResponse `json:"poems"`
}

// ─────────────────────────────────────────────
// Routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleGenerateLine(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePoems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSavePoem(w, r)
	case http.MethodGet:
		s.handleListPoems(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /api/poems/{id}
func (s *Server) handlePoemWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/poems/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetPoem(w, r, domain.PoemID(id))
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleGenerateLine(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if req.LineNumber == nil {
		writeError(w, r, domain.InvalidInput("lineNumber", "must be a number"))
		return
	}
	if req.History == nil {
		writeError(w, r, domain.InvalidInput("history", "must be an array"))
		return
	}

	rec, err := s.gen.GenerateLine(r.Context(), generation.GenerateInput{
		Theme:      domain.Theme(req.Theme),
		LineNumber: *req.LineNumber,
		History:    *req.History,
		APIKey:     req.APIKey,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSavePoem(w http.ResponseWriter, r *http.Request) {
	if !s.archive.Enabled() {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "archive is disabled"})
		return
	}

	var req savePoemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	poem, err := s.archive.SavePoem(r.Context(), archive.SavePoemInput{
		Theme: req.Theme,
		Lines: req.Lines,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPoemResponse(poem))
}

func (s *Server) handleListPoems(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	poems, err := s.archive.ListPoems(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listPoemsResponse{Poems: make([]poemResponse, 0, len(poems))}
	for _, p := range poems {
		resp.Poems = append(resp.Poems, toPoemResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoem(w http.ResponseWriter, r *http.Request, id domain.PoemID) {
	poem, err := s.archive.GetPoem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoemResponse(poem))
}

func toPoemResponse(p *domain.Poem) poemResponse {
	return poemResponse{
		ID:        string(p.ID),
		Theme:     string(p.Theme),
		Kind:      string(p.Kind),
		Lines:     p.Lines,
		CreatedAt: p.CreatedAt,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// decodeJSON reads a single JSON object. Wrong field types and trailing
// data are reported as client errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errors.New("invalid " + typeErr.Field + ": wrong type")
		}
		return errors.New("invalid JSON body")
	}
	if dec.More() {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		notFound(w)
	default:
		internalError(w, r, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
