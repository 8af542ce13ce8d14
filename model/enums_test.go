package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelBoundaries(t *testing.T) {
	cases := []struct {
		rate float64
		want RiskLevel
	}{
		{1.0, RiskCritical},
		{0.5, RiskCritical},
		{0.4999, RiskHigh},
		{0.3, RiskHigh},
		{0.2999, RiskMedium},
		{0.15, RiskMedium},
		{0.1499, RiskLow},
		{0, RiskLow},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RiskLevelForFalseRate(c.rate), "rate %v", c.rate)
	}
}

func TestParseVerdict(t *testing.T) {
	assert.Equal(t, VerdictMostlyFalse, ParseVerdict("mostly_false"))
	assert.Equal(t, VerdictMostlyTrue, ParseVerdict(" Mostly  True "))
	assert.Equal(t, VerdictFalse, ParseVerdict("false"))
	assert.Equal(t, VerdictUnverified, ParseVerdict("pants on fire"))
	assert.Equal(t, VerdictUnverified, ParseVerdict(""))
}

func TestConfidenceTier(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceTier(3))
	assert.Equal(t, ConfidenceHigh, ConfidenceTier(2.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceTier(2.49))
	assert.Equal(t, ConfidenceMedium, ConfidenceTier(1.5))
	assert.Equal(t, ConfidenceLow, ConfidenceTier(1))
	assert.Equal(t, ConfidenceUnknown, ConfidenceTier(0))
	assert.Equal(t, ConfidenceLevel(""), ParseConfidence("very"))
	assert.Equal(t, ConfidenceHigh, ParseConfidence("HIGH"))
}

func TestTimeRangeDuration(t *testing.T) {
	assert.Equal(t, time.Hour, TimeRangeHour.Duration())
	assert.Equal(t, 7*24*time.Hour, TimeRangeWeek.Duration())
	assert.Zero(t, TimeRangeAll.Duration())
	assert.False(t, TimeRange("decade").IsValid())
}

func TestBadgeForRank(t *testing.T) {
	assert.Equal(t, BadgeGold, BadgeForRank(1))
	assert.Equal(t, BadgeSilver, BadgeForRank(2))
	assert.Equal(t, BadgeBronze, BadgeForRank(3))
	assert.Equal(t, Badge(""), BadgeForRank(4))
}
