package loader

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

const depositsDocument = "fixed-deposit/fd"

// knownBankNames are looked for in the "about" text, longer names first.
var knownBankNames = []string{
	"State Bank of India", "SBI",
	"HDFC Bank", "HDFC",
	"ICICI Bank", "ICICI",
	"Axis Bank", "Axis",
	"Kotak Mahindra Bank", "Kotak",
	"Punjab National Bank", "PNB",
	"Bank of Baroda", "BOB",
	"Canara Bank",
	"Union Bank",
	"Indian Bank",
	"Central Bank",
	"Yes Bank",
	"IndusInd Bank",
	"Federal Bank",
	"Karnataka Bank",
	"South Indian Bank",
	"City Union Bank",
}

const (
	minCompanyNameLen = 10
	maxCompanyNameLen = 50
)

// FixedDepositLoader reads fixed-deposit/fd.json.
type FixedDepositLoader struct {
	backend Backend
	logger  *zap.Logger
}

// NewFixedDepositLoader creates a fixed deposit loader.
func NewFixedDepositLoader(backend Backend, logger *zap.Logger) *FixedDepositLoader {
	return &FixedDepositLoader{backend: backend, logger: utils.OrNop(logger)}
}

// Category returns models.CategoryFixedDeposits.
func (l *FixedDepositLoader) Category() models.ProductCategory {
	return models.CategoryFixedDeposits
}

// Load returns deposits whose bank_name or about text contains source.
// Search-index style records wrapped in "_source" are unwrapped.
func (l *FixedDepositLoader) Load(ctx context.Context, source string) ([]models.RawRecord, error) {
	records, err := readRecords(ctx, l.backend, depositsDocument)
	if err != nil {
		return nil, err
	}

	deposits := make([]models.RawRecord, 0, len(records))
	for _, record := range records {
		if inner, ok := record["_source"].(map[string]any); ok {
			record = inner
		}
		if source != "" && (record == nil || !containsFold(source,
			utils.ToString(record["bank_name"]), utils.ToString(record["about"]))) {
			continue
		}
		deposits = append(deposits, record)
	}

	l.logger.Debug("Loaded fixed deposits",
		zap.String("source", source),
		zap.Int("count", len(deposits)),
	)

	return deposits, nil
}

// AvailableSources lists the distinct bank names recognized in the about texts.
func (l *FixedDepositLoader) AvailableSources(ctx context.Context) ([]string, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var banks []string
	for _, record := range records {
		if record == nil {
			continue
		}
		if bank := ExtractBankName(utils.ToString(record["about"])); bank != "" && !seen[bank] {
			seen[bank] = true
			banks = append(banks, bank)
		}
	}
	sort.Strings(banks)
	return banks, nil
}

// ByMinRate returns deposits whose best advertised rate is at least minRate,
// best rate first.
func (l *FixedDepositLoader) ByMinRate(ctx context.Context, minRate float64) ([]models.RawRecord, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	type rated struct {
		record models.RawRecord
		rate   float64
	}
	var matches []rated
	for _, record := range records {
		if record == nil {
			continue
		}
		if rate := bestRate(record); rate > 0 && rate >= minRate {
			matches = append(matches, rated{record, rate})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rate > matches[j].rate })

	out := make([]models.RawRecord, len(matches))
	for i, m := range matches {
		out[i] = m.record
	}
	return out, nil
}

// ByTenure returns deposits whose minimum tenure lies in [minDays, maxDays].
// A maxDays of zero or less means no upper bound.
func (l *FixedDepositLoader) ByTenure(ctx context.Context, minDays, maxDays int) ([]models.RawRecord, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	var out []models.RawRecord
	for _, record := range records {
		if record == nil {
			continue
		}
		from := 0
		if v := utils.ToInt(record["tenure_from_days"]); v != nil {
			from = *v
		}
		if from >= minDays && (maxDays <= 0 || from <= maxDays) {
			out = append(out, record)
		}
	}
	return out, nil
}

func bestRate(record models.RawRecord) float64 {
	best := 0.0
	for _, field := range []string{
		"roi_in_percentage_max_tenure",
		"roi_in_percentage_senior_citizen_max_tenure",
		"roi_in_percentage_min_tenure",
	} {
		if rate := utils.ParseRate(record[field]); rate != nil && *rate > best {
			best = *rate
		}
	}
	return best
}

// ExtractBankName finds a known bank name in free text, or the leading
// company name ending in "Limited", "Ltd" or "Corporation".
func ExtractBankName(about string) string {
	if about == "" {
		return ""
	}

	lower := strings.ToLower(about)
	for _, bank := range knownBankNames {
		if strings.Contains(lower, strings.ToLower(bank)) {
			return bank
		}
	}

	if !strings.Contains(lower, "limited") && !strings.Contains(lower, "ltd") {
		return ""
	}

	words := strings.Fields(about)
	for i, word := range words {
		switch strings.ToLower(word) {
		case "limited", "ltd", "corporation":
			name := strings.Join(words[:i+1], " ")
			if len(name) > minCompanyNameLen {
				if len(name) > maxCompanyNameLen {
					name = name[:maxCompanyNameLen]
				}
				return name
			}
		}
	}
	return ""
}
