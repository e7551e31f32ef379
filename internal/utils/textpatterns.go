package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// Free-text extraction for card descriptions. Every function here is a pure
// text -> optional value mapping so that a structured data path can replace it.

var (
	cashbackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*cashback`),
		regexp.MustCompile(`earn\s+(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*percent\s+cashback`),
	}

	percentCashbackPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*cashback`)

	feePatterns = []*regexp.Regexp{
		regexp.MustCompile(`annual fee[:\s]*₹?\s*(\d+)`),
		regexp.MustCompile(`₹\s*(\d+)\s*annual fee`),
		regexp.MustCompile(`joining fee[:\s]*₹?\s*(\d+)`),
	}

	interestRatePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%.*interest`)
)

const maxWelcomeBenefitLen = 100

// ExtractCashbackRate returns the highest cashback percentage mentioned in text.
func ExtractCashbackRate(text string) *float64 {
	lower := strings.ToLower(text)
	var best *float64
	for _, pattern := range cashbackPatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			rate, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if best == nil || rate > *best {
				r := rate
				best = &r
			}
		}
	}
	return best
}

// ExtractPercentCashback returns the highest "N% cashback" mention as written
// in the text, for display.
func ExtractPercentCashback(text string) string {
	best, bestText := -1.0, ""
	for _, match := range percentCashbackPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		rate, err := strconv.ParseFloat(match[1], 64)
		if err == nil && rate > best {
			best, bestText = rate, match[1]
		}
	}
	return bestText
}

// ExtractAnnualFee returns the first annual or joining fee mentioned in text.
func ExtractAnnualFee(text string) *float64 {
	lower := strings.ToLower(text)
	for _, pattern := range feePatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		if fee, err := strconv.ParseFloat(match[1], 64); err == nil {
			return &fee
		}
	}
	return nil
}

// ExtractWelcomeBenefit returns the first line mentioning "welcome", trimmed
// and truncated. Returns "" when there is none.
func ExtractWelcomeBenefit(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), "welcome") {
			continue
		}
		line = strings.TrimSpace(line)
		if runes := []rune(line); len(runes) > maxWelcomeBenefitLen {
			line = string(runes[:maxWelcomeBenefitLen])
		}
		return line
	}
	return ""
}

// MentionsFuelBenefit reports fuel benefit mentions such as a surcharge waiver
// or fuel cashback.
func MentionsFuelBenefit(text string) bool {
	return strings.Contains(strings.ToLower(text), "fuel")
}

// MentionsLoungeAccess reports airport lounge mentions.
func MentionsLoungeAccess(text string) bool {
	return ContainsAny(strings.ToLower(text), "lounge", "airport access")
}

// ExtractInterestRate finds a rate written as "N% ... interest".
func ExtractInterestRate(text string) *float64 {
	match := interestRatePattern.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return nil
	}
	rate, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &rate
}

// ContainsAny reports whether text contains any of the terms.
func ContainsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
