// Package chi is the HTTP transport for the chat, ingest and search APIs.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	chatuc "github.com/spacetwo/spacetwo-chat/internal/usecase/chat"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/recommend"
)

// Search debug endpoint limits.
const (
	defaultSearchTopK = 6
	maxSearchTopK     = 50
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP handlers.
type Server struct {
	chat          ChatService
	ingest        IngestService
	search        SearchService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	ingest IngestService,
	search SearchService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:   chat,
		ingest: ingest,
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeInvalidRequest),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrBatchUpsert, http.StatusBadGateway, ErrorCodeBatchUpsertFailed),
	}
	return s
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if !report.OK() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		OK:     report.OK(),
		Status: string(report.Status),
		Checks: checks,
	})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msgs := make([]chatuc.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = chatuc.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := s.chat.Handle(r.Context(), chatuc.Request{
		ConversationID:       req.ThreadID,
		Messages:             msgs,
		Geo:                  req.Geo,
		AvailabilityRequired: req.AvailabilityRequired,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: resp.Reply, Recommendations: resp.Recommendations})
}

// Ingest handles POST /api/ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := s.ingest.Ingest(r.Context(), req.Items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Upserted: n})
}

// Search handles GET /api/search?q=&top_k=&available=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var (
		q         string
		topK      *int
		available *bool
	)
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", query, &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter q: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", query, &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter top_k: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "available", query, &available); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter available: "+err.Error())
		return
	}

	k := defaultSearchTopK
	if topK != nil {
		k = *topK
	}
	if k < 1 || k > maxSearchTopK {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "top_k must be between 1 and 50")
		return
	}

	f := recommend.BuildFilter(recommend.RequestContext{AvailabilityRequired: available != nil && *available})
	hits, err := s.search.Search(r.Context(), q, k, f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: q, Recommendations: recommend.ToRecommendations(hits)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a message for the client without exposing internals.
// Validation errors carry caller input only, so their full text is returned.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	for _, s := range []error{domain.ErrVectorDimMismatch, domain.ErrBatchUpsert} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
