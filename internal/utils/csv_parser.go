package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// ColumnAliases maps alternative product column names to standard names.
var ColumnAliases = map[string]string{
	// name aliases
	"product name": "name",
	"product_name": "name",
	"card name":    "name",
	"card_name":    "name",
	"fund name":    "name",
	"fund_name":    "name",
	"scheme name":  "name",
	"scheme_name":  "name",

	// bank aliases
	"bank name": "bank_name",
	"bankname":  "bank_name",
	"issuer":    "bank",

	// fee aliases
	"annual fee":    "annual_fee",
	"annualfee":     "annual_fee",
	"yearly fee":    "annual_fee",
	"joining_fee":   "annual_fee",
	"expense ratio": "expense_ratio",

	// fixed deposit rate aliases
	"interest_rate_max":   "roi_in_percentage_max_tenure",
	"max_rate":            "roi_in_percentage_max_tenure",
	"interest_rate_min":   "roi_in_percentage_min_tenure",
	"min_rate":            "roi_in_percentage_min_tenure",
	"senior_citizen_rate": "roi_in_percentage_senior_citizen_max_tenure",
	"senior_rate":         "roi_in_percentage_senior_citizen_max_tenure",
	"min_tenure_days":     "tenure_from_days",
	"max_tenure_days":     "tenure_to_days",

	// mutual fund aliases
	"fund house":    "amc",
	"fund_house":    "amc",
	"risk":          "risk_level",
	"riskometer":    "risk_level",
	"fund category": "category",
	"1y returns":    "returns_1y",
	"3y returns":    "returns_3y",
	"5y returns":    "returns_5y",
}

// ListColumns are split on "|" or ";" into string lists.
var ListColumns = map[string]bool{
	"features":          true,
	"holdings":          true,
	"sector_allocation": true,
}

// CSVParser converts product CSV files into field maps.
type CSVParser struct {
	columnMapping map[string]int
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseRecords parses CSV content with a header row into one map per data row.
// Empty cells are omitted so that consumers see them as absent.
func (p *CSVParser) ParseRecords(content string, required ...string) ([]map[string]any, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header, required); err != nil {
		return nil, []error{err}
	}

	var records []map[string]any
	var parseErrors []error
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		records = append(records, p.parseRow(row))
	}

	if len(records) == 0 && len(parseErrors) > 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return records, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string, required []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := NormalizeColumn(col)
		p.columnMapping[normalized] = i
	}

	var missing []string
	for _, column := range required {
		if _, ok := p.columnMapping[column]; !ok {
			missing = append(missing, column)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

func (p *CSVParser) parseRow(row []string) map[string]any {
	record := make(map[string]any, len(p.columnMapping))
	for column, idx := range p.columnMapping {
		if idx >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[idx])
		if value == "" {
			continue
		}
		if ListColumns[column] {
			record[column] = splitList(value)
			continue
		}
		record[column] = value
	}
	return record
}

// NormalizeColumn lowercases a header and applies ColumnAliases.
func NormalizeColumn(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(col))
	if alias, ok := ColumnAliases[normalized]; ok {
		return alias
	}
	return strings.ReplaceAll(normalized, " ", "_")
}

func splitList(value string) []any {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '|' || r == ';' })
	out := make([]any, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CSVValidationResult contains the result of CSV structure validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	RowCount       int      `json:"row_count"`
}

// ValidateCSVStructure checks that a product CSV has the given columns.
func ValidateCSVStructure(content string, required ...string) (*CSVValidationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyCSV
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}

	result := &CSVValidationResult{RowCount: len(rows) - 1}
	present := make(map[string]bool)
	for _, col := range rows[0] {
		normalized := NormalizeColumn(col)
		result.Columns = append(result.Columns, normalized)
		present[normalized] = true
	}
	for _, column := range required {
		if !present[column] {
			result.MissingColumns = append(result.MissingColumns, column)
		}
	}
	result.Valid = len(result.MissingColumns) == 0

	return result, nil
}
