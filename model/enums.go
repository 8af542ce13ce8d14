package model

import (
	"strings"
	"time"
)

type Verdict string

const (
	VerdictTrue        Verdict = "TRUE"
	VerdictMostlyTrue  Verdict = "MOSTLY TRUE"
	VerdictMixed       Verdict = "MIXED"
	VerdictMostlyFalse Verdict = "MOSTLY FALSE"
	VerdictFalse       Verdict = "FALSE"
	VerdictUnverified  Verdict = "UNVERIFIED"
)

var AllVerdict = []Verdict{
	VerdictTrue,
	VerdictMostlyTrue,
	VerdictMixed,
	VerdictMostlyFalse,
	VerdictFalse,
	VerdictUnverified,
}

// FalseFamilyVerdicts count towards a false rate.
var FalseFamilyVerdicts = []Verdict{VerdictFalse, VerdictMostlyFalse}

// TrueFamilyVerdicts count towards an accuracy rate.
var TrueFamilyVerdicts = []Verdict{VerdictTrue, VerdictMostlyTrue}

func (e Verdict) IsValid() bool {
	switch e {
	case VerdictTrue, VerdictMostlyTrue, VerdictMixed, VerdictMostlyFalse, VerdictFalse, VerdictUnverified:
		return true
	}
	return false
}

func (e Verdict) String() string {
	return string(e)
}

// ParseVerdict accepts the spellings the fact-check service is known to emit
// ("mostly_false", "Mostly False", ...). Unknown values map to UNVERIFIED.
func ParseVerdict(s string) Verdict {
	v := Verdict(strings.Join(strings.Fields(strings.ToUpper(strings.ReplaceAll(s, "_", " "))), " "))
	if v.IsValid() {
		return v
	}
	return VerdictUnverified
}

type FactCheckStatus string

const (
	FactCheckStatusUnchecked FactCheckStatus = "UNCHECKED"
	FactCheckStatusPending   FactCheckStatus = "PENDING"
	FactCheckStatusComplete  FactCheckStatus = "COMPLETE"
	FactCheckStatusFailed    FactCheckStatus = "FAILED"
)

func (e FactCheckStatus) IsValid() bool {
	switch e {
	case FactCheckStatusUnchecked, FactCheckStatusPending, FactCheckStatusComplete, FactCheckStatusFailed:
		return true
	}
	return false
}

func (e FactCheckStatus) String() string {
	return string(e)
}

// IsTerminal is true once no poller will touch the job again.
func (e FactCheckStatus) IsTerminal() bool {
	return e == FactCheckStatusComplete || e == FactCheckStatusFailed
}

type FactCheckMode string

const (
	FactCheckModeStandard  FactCheckMode = "standard"
	FactCheckModeThorough  FactCheckMode = "thorough"
	FactCheckModeSynthesis FactCheckMode = "synthesis"
)

func (e FactCheckMode) IsValid() bool {
	switch e {
	case FactCheckModeStandard, FactCheckModeThorough, FactCheckModeSynthesis:
		return true
	}
	return false
}

func (e FactCheckMode) String() string {
	return string(e)
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
	// ConfidenceUnknown is only used for aggregates with no confidence data.
	ConfidenceUnknown ConfidenceLevel = "unknown"
)

func (e ConfidenceLevel) IsValid() bool {
	switch e {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

func (e ConfidenceLevel) String() string {
	return string(e)
}

// ParseConfidence lower-cases s, returning "" for unknown values.
func ParseConfidence(s string) ConfidenceLevel {
	c := ConfidenceLevel(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return ""
}

// ConfidenceTier buckets an average confidence weight (high=3, medium=2,
// low=1).
func ConfidenceTier(avg float64) ConfidenceLevel {
	switch {
	case avg >= 2.5:
		return ConfidenceHigh
	case avg >= 1.5:
		return ConfidenceMedium
	case avg > 0:
		return ConfidenceLow
	}
	return ConfidenceUnknown
}

type SourceConsensus string

const (
	ConsensusNone     SourceConsensus = "none"
	ConsensusStrong   SourceConsensus = "strong"
	ConsensusModerate SourceConsensus = "moderate"
	ConsensusMixed    SourceConsensus = "mixed"
)

func (e SourceConsensus) String() string {
	return string(e)
}

type FeedSort string

const (
	FeedSortHot FeedSort = "hot"
	FeedSortNew FeedSort = "new"
	FeedSortTop FeedSort = "top"
)

func (e FeedSort) IsValid() bool {
	switch e {
	case FeedSortHot, FeedSortNew, FeedSortTop:
		return true
	}
	return false
}

func (e FeedSort) String() string {
	return string(e)
}

type TimeRange string

const (
	TimeRangeHour  TimeRange = "hour"
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
	TimeRangeAll   TimeRange = "all"
)

func (e TimeRange) IsValid() bool {
	switch e {
	case TimeRangeHour, TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear, TimeRangeAll:
		return true
	}
	return false
}

func (e TimeRange) String() string {
	return string(e)
}

// Duration is the look-back of the range; 0 means unbounded.
func (e TimeRange) Duration() time.Duration {
	switch e {
	case TimeRangeHour:
		return time.Hour
	case TimeRangeDay:
		return 24 * time.Hour
	case TimeRangeWeek:
		return 7 * 24 * time.Hour
	case TimeRangeMonth:
		return 30 * 24 * time.Hour
	case TimeRangeYear:
		return 365 * 24 * time.Hour
	}
	return 0
}

type StatsSort string

const (
	StatsSortCredibility StatsSort = "credibility"
	StatsSortVolume      StatsSort = "volume"
	StatsSortFalseRate   StatsSort = "false_rate"
)

func (e StatsSort) IsValid() bool {
	switch e {
	case StatsSortCredibility, StatsSortVolume, StatsSortFalseRate:
		return true
	}
	return false
}

func (e StatsSort) String() string {
	return string(e)
}

type LeaderboardMetric string

const (
	MetricCredibility LeaderboardMetric = "credibility"
	MetricAccuracy    LeaderboardMetric = "accuracy"
	MetricVolume      LeaderboardMetric = "volume"
	MetricConsistency LeaderboardMetric = "consistency"
)

func (e LeaderboardMetric) IsValid() bool {
	switch e {
	case MetricCredibility, MetricAccuracy, MetricVolume, MetricConsistency:
		return true
	}
	return false
}

func (e LeaderboardMetric) String() string {
	return string(e)
}

type LeaderboardDirection string

const (
	DirectionTop    LeaderboardDirection = "top"
	DirectionBottom LeaderboardDirection = "bottom"
)

func (e LeaderboardDirection) IsValid() bool {
	return e == DirectionTop || e == DirectionBottom
}

func (e LeaderboardDirection) String() string {
	return string(e)
}

type HistoryPeriod string

const (
	PeriodMonth   HistoryPeriod = "month"
	PeriodQuarter HistoryPeriod = "quarter"
	PeriodYear    HistoryPeriod = "year"
	PeriodAllTime HistoryPeriod = "all_time"
)

func (e HistoryPeriod) IsValid() bool {
	switch e {
	case PeriodMonth, PeriodQuarter, PeriodYear, PeriodAllTime:
		return true
	}
	return false
}

func (e HistoryPeriod) String() string {
	return string(e)
}

type HistoryMetric string

const (
	HistoryCredibility HistoryMetric = "credibility"
	HistoryVolume      HistoryMetric = "volume"
	HistoryFalseRate   HistoryMetric = "false_rate"
)

func (e HistoryMetric) IsValid() bool {
	switch e {
	case HistoryCredibility, HistoryVolume, HistoryFalseRate:
		return true
	}
	return false
}

func (e HistoryMetric) String() string {
	return string(e)
}

type HotspotType string

const (
	HotspotAll      HotspotType = "all"
	HotspotCategory HotspotType = "category"
	HotspotSource   HotspotType = "source"
)

func (e HotspotType) IsValid() bool {
	switch e {
	case HotspotAll, HotspotCategory, HotspotSource:
		return true
	}
	return false
}

func (e HotspotType) String() string {
	return string(e)
}

type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// RiskLevelForFalseRate maps a false rate onto closed thresholds, a rate equal
// to a threshold belongs to the higher tier.
func RiskLevelForFalseRate(falseRate float64) RiskLevel {
	switch {
	case falseRate >= 0.5:
		return RiskCritical
	case falseRate >= 0.3:
		return RiskHigh
	case falseRate >= 0.15:
		return RiskMedium
	}
	return RiskLow
}

func (e RiskLevel) String() string {
	return string(e)
}

type Badge string

const (
	BadgeGold   Badge = "gold"
	BadgeSilver Badge = "silver"
	BadgeBronze Badge = "bronze"
)

// BadgeForRank returns the badge of a 1-based rank, "" past the podium.
func BadgeForRank(rank int) Badge {
	switch rank {
	case 1:
		return BadgeGold
	case 2:
		return BadgeSilver
	case 3:
		return BadgeBronze
	}
	return ""
}

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

func (e TrendDirection) String() string {
	return string(e)
}
