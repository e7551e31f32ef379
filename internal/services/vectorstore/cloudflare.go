package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"financial-product-advisor/internal/metrics"
	"financial-product-advisor/internal/utils"
)

const (
	// DefaultAPIBaseURL is the Cloudflare v4 API root.
	DefaultAPIBaseURL = "https://api.cloudflare.com/client/v4"

	// UpsertBatchSize is the largest upsert Vectorize accepts in one call.
	UpsertBatchSize = 1000

	breakerName = "cloudflare-vectorize"
)

// CloudflareConfig configures a CloudflareStore.
type CloudflareConfig struct {
	AccountID  string
	APIToken   string
	IndexName  string
	APIBaseURL string
	HTTPClient *http.Client
}

// CloudflareStore talks to a Cloudflare Vectorize index over its REST API.
// Calls go through a circuit breaker that opens after repeated transport or
// server errors.
type CloudflareStore struct {
	indexesURL string
	indexName  string
	token      string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
	logger     *zap.Logger
}

// apiResponse is a completed HTTP exchange.
type apiResponse struct {
	status int
	body   []byte
}

// NewCloudflareStore validates credentials and creates the store.
func NewCloudflareStore(cfg CloudflareConfig, logger *zap.Logger) (*CloudflareStore, error) {
	if cfg.AccountID == "" || cfg.APIToken == "" {
		return nil, errors.New("cloudflare credentials not provided")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "financial-products"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger = utils.OrNop(logger)

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	breaker := gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &CloudflareStore{
		indexesURL: strings.TrimRight(cfg.APIBaseURL, "/") + "/accounts/" + cfg.AccountID + "/vectorize/indexes",
		indexName:  cfg.IndexName,
		token:      cfg.APIToken,
		client:     cfg.HTTPClient,
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// EnsureIndex creates the index with cosine metric unless it already exists.
func (s *CloudflareStore) EnsureIndex(ctx context.Context, dimension int) error {
	resp, err := s.call(ctx, "ensure_index", http.MethodGet, s.indexURL(""), nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusOK {
		return nil
	}

	create := map[string]any{
		"name": s.indexName,
		"config": map[string]any{
			"metric":     "cosine",
			"dimensions": dimension,
		},
	}
	resp, err = s.call(ctx, "ensure_index", http.MethodPost, s.indexesURL, create)
	if err != nil {
		return err
	}
	if !okStatus(resp.status, http.StatusOK, http.StatusCreated) {
		return s.statusError("create index", resp)
	}

	s.logger.Info("Created Vectorize index",
		zap.String("index", s.indexName),
		zap.Int("dimension", dimension),
	)
	return nil
}

// Upsert sends vectors in batches of UpsertBatchSize; the first failing
// batch fails the whole call.
func (s *CloudflareStore) Upsert(ctx context.Context, vectors []Vector) error {
	for start := 0; start < len(vectors); start += UpsertBatchSize {
		end := min(start+UpsertBatchSize, len(vectors))

		resp, err := s.call(ctx, "upsert", http.MethodPost, s.indexURL("/upsert"),
			map[string]any{"vectors": vectors[start:end]})
		if err != nil {
			return fmt.Errorf("upsert batch %d: %w", start/UpsertBatchSize+1, err)
		}
		if !okStatus(resp.status, http.StatusOK, http.StatusCreated) {
			return fmt.Errorf("upsert batch %d: %w", start/UpsertBatchSize+1, s.statusError("upsert", resp))
		}
	}
	return nil
}

// Query returns the nearest vectors. Filters are passed through to Vectorize.
func (s *CloudflareStore) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	body := map[string]any{
		"vector": vector,
		"topK":   topK,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}

	resp, err := s.call(ctx, "query", http.MethodPost, s.indexURL("/query"), body)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, s.statusError("query", resp)
	}

	var decoded struct {
		Result struct {
			Matches []struct {
				ID       string         `json:"id"`
				Score    float64        `json:"score"`
				Metadata map[string]any `json:"metadata"`
			} `json:"matches"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp.body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	matches := make([]Match, 0, len(decoded.Result.Matches))
	for _, m := range decoded.Result.Matches {
		var meta Metadata
		if m.Metadata != nil {
			meta = make(Metadata, len(m.Metadata))
			for k, v := range m.Metadata {
				meta[k] = utils.ToString(v)
			}
		}
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: meta})
	}
	return matches, nil
}

// Delete removes vectors by id.
func (s *CloudflareStore) Delete(ctx context.Context, ids []string) error {
	resp, err := s.call(ctx, "delete", http.MethodPost, s.indexURL("/delete"), map[string]any{"ids": ids})
	if err != nil {
		return err
	}
	if !okStatus(resp.status, http.StatusOK, http.StatusNoContent) {
		return s.statusError("delete", resp)
	}
	return nil
}

func (s *CloudflareStore) indexURL(suffix string) string {
	return s.indexesURL + "/" + s.indexName + suffix
}

// call performs one JSON request through the circuit breaker. Transport
// errors and 5xx responses count as breaker failures; other statuses are
// returned for the caller to interpret.
func (s *CloudflareStore) call(ctx context.Context, operation, method, url string, payload any) (*apiResponse, error) {
	resp, err := s.breaker.Execute(func() (*apiResponse, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal payload: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		result := &apiResponse{status: httpResp.StatusCode, body: data}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return result, s.statusError(operation, result)
		}
		return result, nil
	})

	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
	case err != nil || resp == nil || resp.status >= http.StatusBadRequest:
		status = "error"
	}
	metrics.VectorStoreRequestsTotal.WithLabelValues("cloudflare", operation, status).Inc()

	if err != nil {
		s.logger.Warn("Vectorize request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}

func (s *CloudflareStore) statusError(operation string, resp *apiResponse) error {
	body := string(resp.body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Errorf("vectorize %s returned status %d: %s", operation, resp.status, body)
}

func okStatus(status int, ok ...int) bool {
	for _, s := range ok {
		if status == s {
			return true
		}
	}
	return false
}
