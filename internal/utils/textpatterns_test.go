package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/utils"
)

func TestExtractCashbackRate(t *testing.T) {
	rate := utils.ExtractCashbackRate("Get 1% cashback on bills and 5% Cashback on Amazon")
	require.NotNil(t, rate)
	assert.Equal(t, 5.0, *rate)

	rate = utils.ExtractCashbackRate("Earn 2.5% on every spend")
	require.NotNil(t, rate)
	assert.Equal(t, 2.5, *rate)

	assert.Nil(t, utils.ExtractCashbackRate("Reward points on dining"))
}

func TestExtractPercentCashback(t *testing.T) {
	assert.Equal(t, "1.5", utils.ExtractPercentCashback("1% cashback offline, 1.5% cashback online"))
	assert.Equal(t, "", utils.ExtractPercentCashback("no cashback here"))
}

func TestExtractAnnualFee(t *testing.T) {
	testCases := []struct {
		text     string
		expected *float64
	}{
		{"Annual fee: ₹500 plus taxes", ptr(500)},
		{"₹2500 annual fee, waived on spends", ptr(2500)},
		{"Joining fee 999", ptr(999)},
		{"Lifetime free card", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.expected, utils.ExtractAnnualFee(tc.text))
		})
	}
}

func TestExtractWelcomeBenefit(t *testing.T) {
	text := "5% cashback\n  Welcome gift of 1000 points  \nLounge access"
	assert.Equal(t, "Welcome gift of 1000 points", utils.ExtractWelcomeBenefit(text))

	long := "Welcome " + strings.Repeat("x", 200)
	assert.Len(t, []rune(utils.ExtractWelcomeBenefit(long)), 100)

	assert.Equal(t, "", utils.ExtractWelcomeBenefit("no benefits"))
}

func TestMentions(t *testing.T) {
	assert.True(t, utils.MentionsFuelBenefit("1% Fuel surcharge waiver"))
	assert.False(t, utils.MentionsFuelBenefit("dining offers"))
	assert.True(t, utils.MentionsLoungeAccess("Complimentary Airport Access"))
	assert.True(t, utils.MentionsLoungeAccess("8 lounge visits"))
	assert.False(t, utils.MentionsLoungeAccess("movie tickets"))
}

func TestExtractInterestRate(t *testing.T) {
	rate := utils.ExtractInterestRate("Earn 7.1% p.a. interest on deposits")
	require.NotNil(t, rate)
	assert.Equal(t, 7.1, *rate)
	assert.Nil(t, utils.ExtractInterestRate("Safe deposits"))
}

func ptr(f float64) *float64 { return &f }
