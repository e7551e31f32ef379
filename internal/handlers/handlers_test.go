package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/manager"
)

type fakeRecommender struct {
	got manager.RecommendRequest
}

func (f *fakeRecommender) Recommend(_ context.Context, req manager.RecommendRequest) models.Recommendation {
	f.got = req
	return models.Recommendation{
		Products:       []models.ScoredProduct{},
		QueryProcessed: req.Query,
		Reasoning:      "No products found matching '" + req.Query + "'. Try different search terms.",
	}
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(context.Context) error { return f.err }

func TestParseRecommendRequest(t *testing.T) {
	req, err := ParseRecommendRequest([]byte(`{
		"query": "  travel card ",
		"categories": ["cc", "fixed-deposit"],
		"preferences": {"max_annual_fee": 500, "credit_cards_source": "hdfc"},
		"max_results": 3
	}`))
	require.NoError(t, err)
	assert.Equal(t, "travel card", req.Query)
	assert.Equal(t, []models.ProductCategory{models.CategoryCreditCards, models.CategoryFixedDeposits}, req.Categories)
	assert.Equal(t, 500.0, *req.Preferences.Float(models.PrefMaxAnnualFee))
	assert.Equal(t, "hdfc", req.Preferences.String("credit_cards_source"))
	assert.Equal(t, 3, req.MaxResults)
}

func TestParseRecommendRequest_Defaults(t *testing.T) {
	req, err := ParseRecommendRequest(nil)
	require.NoError(t, err)
	assert.Nil(t, req.Categories)
	assert.Equal(t, 0, req.MaxResults)

	req, err = ParseRecommendRequest([]byte(`{"categories": []}`))
	require.NoError(t, err)
	assert.NotNil(t, req.Categories)
	assert.Empty(t, req.Categories)
}

func TestParseRecommendRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{"query":`},
		{"unknown category", `{"categories": ["crypto"]}`},
		{"negative max", `{"max_results": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecommendRequest([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestRecommendHandler_Handle(t *testing.T) {
	rec := &fakeRecommender{}
	h := NewRecommendHandler(rec, nil)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"query": "gold fund", "categories": ["mf"]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, []models.ProductCategory{models.CategoryMutualFunds}, rec.got.Categories)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "gold fund", body["query_processed"])
	assert.Equal(t, []any{}, body["products"])
	assert.Equal(t, 0.0, body["total_found"])
}

func TestRecommendHandler_Errors(t *testing.T) {
	h := NewRecommendHandler(&fakeRecommender{}, nil)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `nope`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Body, "invalid JSON")

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestHealthHandler(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no database", nil, http.StatusOK, "not configured"},
		{"connected", fakePinger{}, http.StatusOK, "connected"},
		{"disconnected", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, "test")
			h.now = func() time.Time { return fixed }

			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body HealthResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.wantDB, body.Database)
			assert.Equal(t, "test", body.Stage)
			assert.Equal(t, "2026-01-02T03:04:05Z", body.Timestamp)
		})
	}
}
