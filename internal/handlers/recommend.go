package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/utils"
)

// Recommender produces recommendations; *manager.ProductManager satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, req manager.RecommendRequest) models.Recommendation
}

// RecommendRequest is the JSON body accepted by the recommend endpoints.
// Category names are normalized, so "fd" and "credit-card" are accepted.
type RecommendRequest struct {
	Query       string                 `json:"query"`
	Categories  []string               `json:"categories,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
	MaxResults  int                    `json:"max_results,omitempty"`
}

// ParseRecommendRequest decodes and validates a recommend body. An empty
// body asks for every category with no preferences.
func ParseRecommendRequest(body []byte) (manager.RecommendRequest, error) {
	var req RecommendRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return manager.RecommendRequest{}, fmt.Errorf("invalid JSON in request body: %w", err)
		}
	}
	return req.ToManager()
}

// ToManager converts the body into a manager request.
func (r RecommendRequest) ToManager() (manager.RecommendRequest, error) {
	if r.MaxResults < 0 {
		return manager.RecommendRequest{}, errors.New("max_results must not be negative")
	}

	out := manager.RecommendRequest{
		Query:       strings.TrimSpace(r.Query),
		Preferences: models.UserPreferences(r.Preferences),
		MaxResults:  r.MaxResults,
	}
	if r.Categories != nil {
		out.Categories = make([]models.ProductCategory, 0, len(r.Categories))
		for _, name := range r.Categories {
			category := models.NormalizeCategory(name)
			if !category.IsValid() {
				return manager.RecommendRequest{}, fmt.Errorf("unknown category: %s", name)
			}
			out.Categories = append(out.Categories, category)
		}
	}
	return out, nil
}

// RecommendHandler serves recommendations through API Gateway.
type RecommendHandler struct {
	recommender Recommender
	logger      *zap.Logger
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(recommender Recommender, logger *zap.Logger) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, logger: utils.OrNop(logger)}
}

// Handle processes API Gateway recommend requests.
func (h *RecommendHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return preflightResponse(), nil
	}
	if request.HTTPMethod != "" && request.HTTPMethod != http.MethodPost {
		return errorResponse(http.StatusMethodNotAllowed, "Method not allowed")
	}

	req, err := ParseRecommendRequest([]byte(request.Body))
	if err != nil {
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	rec := h.recommender.Recommend(ctx, req)
	h.logger.Info("Served recommendation",
		zap.String("query", req.Query),
		zap.Int("returned", len(rec.Products)),
		zap.Int("total_found", rec.TotalFound),
	)
	return jsonResponse(http.StatusOK, rec)
}
