package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"financial-product-advisor/internal/handlers"
	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/services/ses"
	"financial-product-advisor/internal/services/vectorstore"
)

const maxBodyBytes = 1 << 20

// advisor is the part of the product manager the server exposes.
type advisor interface {
	handlers.Recommender
	CategoryStats(ctx context.Context) map[models.ProductCategory]models.CategoryStats
	InitializeVectorStore(ctx context.Context) (int, error)
	SearchSimilar(ctx context.Context, query string, topK int, filter map[string]string) ([]vectorstore.Match, error)
}

type digestSender interface {
	SendRecommendationDigest(ctx context.Context, params ses.DigestParams) (*ses.SendEmailResult, error)
}

// Server holds all dependencies
type Server struct {
	advisor advisor
	mailer  digestSender
	health  *handlers.HealthHandler
	logger  *zap.Logger
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EmailRequest is a recommend body plus the digest recipient.
type EmailRequest struct {
	handlers.RecommendRequest
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SearchRequest is the body of a vector search.
type SearchRequest struct {
	Query  string            `json:"query"`
	TopK   int               `json:"top_k,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

// NewServer creates a server. mailer may be nil.
func NewServer(a advisor, mailer digestSender, health *handlers.HealthHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{advisor: a, mailer: mailer, health: health, logger: logger}
}

// Routes registers the API on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/health", s.healthHandler)

	// Recommendations
	mux.HandleFunc("POST /api/recommend", s.recommendHandler)
	mux.HandleFunc("POST /api/recommend/email", s.recommendEmailHandler)
	mux.HandleFunc("GET /api/categories/stats", s.statsHandler)

	// Vector store
	mux.HandleFunc("POST /api/vector-store/index", s.indexHandler)
	mux.HandleFunc("POST /api/vector-store/search", s.searchHandler)

	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Response{
		Success: status == http.StatusOK,
		Message: "Financial Product Advisor API is running",
		Data:    report,
	})
}

func (s *Server) recommendHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := handlers.ParseRecommendRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := s.advisor.Recommend(r.Context(), req)
	writeJSON(w, http.StatusOK, Response{Success: true, Data: rec})
}

func (s *Server) recommendEmailHandler(w http.ResponseWriter, r *http.Request) {
	if s.mailer == nil {
		writeError(w, http.StatusServiceUnavailable, "Email delivery is not configured")
		return
	}

	var body EmailRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: email")
		return
	}
	req, err := body.ToManager()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := s.advisor.Recommend(r.Context(), req)
	result, err := s.mailer.SendRecommendationDigest(r.Context(), ses.DigestParams{
		To:             body.Email,
		RecipientName:  body.Name,
		Recommendation: rec,
	})
	if err != nil {
		s.logger.Error("Failed to send digest", zap.String("to", body.Email), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Recommendations sent to " + body.Email,
		Data: map[string]interface{}{
			"message_id":     result.MessageID,
			"recommendation": rec,
		},
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.advisor.CategoryStats(r.Context())})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.advisor.InitializeVectorStore(r.Context())
	if err != nil {
		s.logger.Error("Vector store initialization failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Vector store populated",
		Data:    map[string]int{"indexed": n},
	})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: query")
		return
	}

	matches, err := s.advisor.SearchSimilar(r.Context(), req.Query, req.TopK, req.Filter)
	switch {
	case errors.Is(err, models.ErrNoEmbedder):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("Vector search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if matches == nil {
		matches = []vectorstore.Match{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: matches})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	return body, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

var _ advisor = (*manager.ProductManager)(nil)
