// Command seed copies the product documents of the local data directory into
// the configured remote backend (postgres or s3).
package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/services/database"
	"financial-product-advisor/internal/services/loader"
	s3service "financial-product-advisor/internal/services/s3"
	"financial-product-advisor/internal/utils"
)

func main() {
	fmt.Println("=== Product Data Seed ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Printf("📂 Reading documents from %s...\n", cfg.DataDir)
	docs, err := readDocuments(ctx, loader.NewFileBackend(cfg.DataDir))
	if err != nil {
		fmt.Printf("❌ Failed to read data directory: %v\n", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		fmt.Println("❌ No documents found, nothing to seed")
		os.Exit(1)
	}
	fmt.Printf("✅ Found %d documents\n", len(docs))

	switch cfg.DataBackend {
	case config.BackendPostgres:
		err = seedPostgres(ctx, cfg, docs)
	case config.BackendS3:
		err = seedS3(ctx, cfg, docs)
	default:
		err = fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", config.BackendPostgres, config.BackendS3, cfg.DataBackend)
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("🎉 Seed complete!")
}

// readDocuments loads every document of a backend into memory.
func readDocuments(ctx context.Context, b loader.Backend) (map[string][]byte, error) {
	keys, err := b.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	docs := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if contentType(key) == "" {
			continue
		}
		data, err := b.ReadDocument(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		docs[key] = data
	}
	return docs, nil
}

// contentType returns the MIME type of supported documents, "" otherwise.
func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return ""
	}
}

func seedPostgres(ctx context.Context, cfg *config.Config, docs map[string][]byte) error {
	fmt.Println("📡 Connecting to PostgreSQL...")
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := database.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	fmt.Println("✅ Schema ready")

	if err := repo.UpsertDocuments(ctx, docs, contentType); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	fmt.Printf("✅ Stored %d documents in raw_documents\n", len(docs))
	return nil
}

func seedS3(ctx context.Context, cfg *config.Config, docs map[string][]byte) error {
	fmt.Printf("📡 Uploading to s3://%s/%s...\n", cfg.S3Bucket, cfg.S3Prefix)
	svc, err := s3service.NewService(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, utils.GetLogger())
	if err != nil {
		return err
	}
	for key, data := range docs {
		if err := svc.UploadFile(ctx, key, data, contentType(key)); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}
	fmt.Printf("✅ Uploaded %d documents\n", len(docs))
	return nil
}
