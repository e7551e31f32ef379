// Command advisor queries the financial product advisor from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/utils"
)

var (
	dataDir    string
	backend    string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Financial product advisor - recommend credit cards, fixed deposits and mutual funds",
	Long: `The advisor loads product data from the configured backend, scores it against
your preferences and ranks it against your query. Configuration comes from the
environment (and an optional .env file); flags override the data location.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return utils.InitLogger(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the file backend (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "data backend: file, s3 or postgres (overrides DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend != "" {
		cfg.DataBackend = backend
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	return cfg, nil
}

// buildManager wires a manager from the environment and flags.
func buildManager(ctx context.Context) (*manager.ProductManager, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	m, cleanup, err := manager.Build(ctx, cfg, utils.GetLogger())
	if err != nil {
		utils.GetLogger().Error("Failed to build product manager", zap.Error(err))
		return nil, nil, err
	}
	return m, cleanup, nil
}

// parsePreferences turns key=value pairs into typed preferences.
func parsePreferences(pairs []string) (models.UserPreferences, error) {
	prefs := models.UserPreferences{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid preference %q, expected key=value", pair)
		}
		prefs[key] = models.ParsePreference(value)
	}
	return prefs, nil
}

// parseCategories normalizes category names. No names means all categories.
func parseCategories(names []string) ([]models.ProductCategory, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]models.ProductCategory, 0, len(names))
	for _, name := range names {
		category := models.NormalizeCategory(name)
		if !category.IsValid() {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		out = append(out, category)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
