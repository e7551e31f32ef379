package manager

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/services/database"
	"financial-product-advisor/internal/services/embedding"
	"financial-product-advisor/internal/services/loader"
	s3service "financial-product-advisor/internal/services/s3"
	"financial-product-advisor/internal/services/vectorstore"
	"financial-product-advisor/internal/utils"
)

// Build wires a manager from configuration: the data backend, the vector
// store (Cloudflare Vectorize when credentials are set, otherwise in memory)
// and the embedder (OpenAI when a key is set, Redis cached when REDIS_ADDR
// is set, otherwise none). Unavailable optional collaborators degrade with
// a warning. The returned func releases connections.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ProductManager, func(), error) {
	logger = utils.OrNop(logger)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	backend, closeBackend, err := NewBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if closeBackend != nil {
		closers = append(closers, closeBackend)
	}

	opts := []Option{
		WithLogger(logger),
		WithVectorDimension(cfg.VectorDimension),
		WithDefaultMaxResults(cfg.DefaultMaxResults),
	}

	if cfg.HasVectorize() {
		store, err := vectorstore.NewCloudflareStore(vectorstore.CloudflareConfig{
			AccountID: cfg.CloudflareAccountID,
			APIToken:  cfg.CloudflareAPIToken,
			IndexName: cfg.VectorizeIndex,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize Cloudflare Vectorize, falling back to in-memory store", zap.Error(err))
		} else {
			opts = append(opts, WithVectorStore(store))
		}
	}

	if cfg.OpenAIAPIKey != "" {
		embedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		var e embedding.Embedder = embedder
		if cfg.RedisAddr != "" {
			redisStore, err := embedding.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EmbeddingCacheTTL)
			if err != nil {
				logger.Warn("Embedding cache unavailable", zap.Error(err))
			} else {
				closers = append(closers, func() { _ = redisStore.Close() })
				e = embedding.NewCachedEmbedder(embedder, redisStore, logger)
			}
		}
		opts = append(opts, WithEmbedder(e))
	} else {
		logger.Info("OPENAI_API_KEY not set, vector search disabled")
	}

	m, err := New(backend, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return m, cleanup, nil
}

// NewBackend opens the configured document backend. The returned close func
// may be nil.
func NewBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (loader.Backend, func(), error) {
	switch cfg.DataBackend {
	case config.BackendFile, "":
		return loader.NewFileBackend(cfg.DataDir), nil, nil
	case config.BackendS3:
		svc, err := s3service.NewService(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, nil, nil
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return database.NewDocumentRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
