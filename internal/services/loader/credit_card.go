package loader

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// cardsDocument is the per-bank document name, without extension.
const cardsDocument = "cards"

// CreditCardLoader reads <bank>/cards.json for every bank directory.
type CreditCardLoader struct {
	backend Backend
	logger  *zap.Logger
}

// NewCreditCardLoader creates a credit card loader.
func NewCreditCardLoader(backend Backend, logger *zap.Logger) *CreditCardLoader {
	return &CreditCardLoader{backend: backend, logger: utils.OrNop(logger)}
}

// Category returns models.CategoryCreditCards.
func (l *CreditCardLoader) Category() models.ProductCategory {
	return models.CategoryCreditCards
}

// Load returns the cards of one bank, matched exactly and case-insensitively
// against the directory name, or of every bank when source is empty.
// Banks that fail to load are skipped when loading everything.
func (l *CreditCardLoader) Load(ctx context.Context, source string) ([]models.RawRecord, error) {
	banks, err := l.bankDirectories(ctx)
	if err != nil {
		return nil, err
	}

	if source != "" {
		bank := strings.ToLower(strings.TrimSpace(source))
		dir, ok := banks[bank]
		if !ok {
			return nil, fmt.Errorf("%w: bank %q, available banks: %s",
				models.ErrSourceNotFound, bank, strings.Join(sortedKeys(banks), ", "))
		}
		return l.loadBank(ctx, bank, dir)
	}

	var all []models.RawRecord
	for _, bank := range sortedKeys(banks) {
		records, err := l.loadBank(ctx, bank, banks[bank])
		if err != nil {
			l.logger.Warn("Failed to load bank cards",
				zap.String("bank", bank),
				zap.Error(err),
			)
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}

// AvailableSources lists bank directory names in lower case.
func (l *CreditCardLoader) AvailableSources(ctx context.Context) ([]string, error) {
	banks, err := l.bankDirectories(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(banks), nil
}

// CardCounts returns the number of cards per bank; unreadable banks count zero.
func (l *CreditCardLoader) CardCounts(ctx context.Context) (map[string]int, error) {
	banks, err := l.bankDirectories(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(banks))
	for bank, dir := range banks {
		records, err := l.loadBank(ctx, bank, dir)
		if err != nil {
			counts[bank] = 0
			continue
		}
		counts[bank] = len(records)
	}
	return counts, nil
}

func (l *CreditCardLoader) loadBank(ctx context.Context, bank, dir string) ([]models.RawRecord, error) {
	records, err := readRecords(ctx, l.backend, path.Join(dir, cardsDocument))
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record != nil && utils.ToString(record["bank"]) == "" {
			record["bank"] = titleCase(bank)
		}
	}
	return records, nil
}

// bankDirectories maps lower-cased bank names to their top-level directory.
func (l *CreditCardLoader) bankDirectories(ctx context.Context) (map[string]string, error) {
	keys, err := l.backend.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	banks := make(map[string]string)
	for _, key := range keys {
		dir, file := path.Split(key)
		dir = strings.Trim(dir, "/")
		if dir == "" || strings.Contains(dir, "/") {
			continue
		}
		if strings.TrimSuffix(file, path.Ext(file)) != cardsDocument {
			continue
		}
		banks[strings.ToLower(dir)] = dir
	}
	return banks, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleCase upper-cases the first letter of each word: "yes bank" -> "Yes Bank".
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
