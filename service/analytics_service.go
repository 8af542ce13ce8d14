package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/scoring"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// FactCheckMilestones are the lifetime fact-check counts worth announcing.
var FactCheckMilestones = []int64{100, 500, 1000, 5000, 10000, 50000, 100000}

const notAvailable = "N/A"

// AnalyticsConfig holds the deadbands under which a history change is
// reported as stable.
type AnalyticsConfig struct {
	CredibilityDeadband float64
	VolumeDeadband      float64
	FalseRateDeadband   float64
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{CredibilityDeadband: 2.0, VolumeDeadband: 2, FalseRateDeadband: 0.02}
}

type AnalyticsService struct {
	store   AnalyticsStore
	sources SourceStore
	cache   ResponseCache
	cfg     AnalyticsConfig
	now     func() time.Time
}

// NewAnalyticsService creates the service. cache may be nil.
func NewAnalyticsService(store AnalyticsStore, sources SourceStore, cache ResponseCache, cfg AnalyticsConfig) *AnalyticsService {
	return &AnalyticsService{store: store, sources: sources, cache: cache, cfg: cfg, now: time.Now}
}

// Period describes the window an analytics payload covers.
type Period struct {
	Days int       `json:"days"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func periodOf(w repository.Window, days int) Period {
	return Period{Days: days, From: w.From, To: w.To}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}

// remember serves dest from the cache when possible, otherwise runs compute
// and stores its result. Cache failures only cost a recomputation.
func (s *AnalyticsService) remember(ctx context.Context, name string, params interface{}, dest interface{}, compute func() error) error {
	if s.cache != nil {
		found, err := s.cache.Get(ctx, name, params, dest)
		if err != nil {
			Log.WithError(err).WithField("query", name).Warn("analytics cache read failed")
		}
		if found {
			return nil
		}
	}
	if err := compute(); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, name, params, dest); err != nil {
			Log.WithError(err).WithField("query", name).Warn("analytics cache write failed")
		}
	}
	return nil
}

type CategoryStat struct {
	Category         string          `json:"category"`
	ArticlesCount    int64           `json:"articles_count"`
	FactCheckedCount int64           `json:"fact_checked_count"`
	VerdictedCount   int64           `json:"verdicted_count"`
	FalseCount       int64           `json:"false_count"`
	AvgCredibility   *float64        `json:"avg_credibility"`
	FalseRate        float64         `json:"false_rate"`
	AccuracyRate     *float64        `json:"accuracy_rate"`
	RiskLevel        model.RiskLevel `json:"risk_level"`
	TopSources       []string        `json:"top_sources"`
}

type CategoryBreakdown struct {
	Period      Period          `json:"period"`
	SortBy      model.StatsSort `json:"sort_by"`
	MinArticles int             `json:"min_articles"`
	Categories  []CategoryStat  `json:"categories"`
}

// Categories breaks the window down per category. Categories with fewer
// than p.MinArticles articles are left out.
func (s *AnalyticsService) Categories(ctx context.Context, p CategoryParams) (*CategoryBreakdown, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out CategoryBreakdown
	err := s.remember(ctx, "categories", p, &out, func() error {
		w := repository.Days(s.now(), p.Days)
		rows, err := s.store.CategoryStatistics(ctx, w, p.MinArticles)
		if err != nil {
			return internal(err)
		}
		repository.SortGroupStats(rows, p.SortBy)

		out = CategoryBreakdown{
			Period:      periodOf(w, p.Days),
			SortBy:      p.SortBy,
			MinArticles: p.MinArticles,
			Categories:  make([]CategoryStat, 0, len(rows)),
		}
		for _, row := range rows {
			top := row.TopSources
			if top == nil {
				top = []string{}
			}
			out.Categories = append(out.Categories, CategoryStat{
				Category:         row.Key,
				ArticlesCount:    row.ArticlesCount,
				FactCheckedCount: row.FactCheckedCount,
				VerdictedCount:   row.VerdictedCount,
				FalseCount:       row.FalseCount,
				AvgCredibility:   roundPtr(row.AvgCredibility, 1),
				FalseRate:        round(row.FalseRate(), 4),
				AccuracyRate:     roundPtr(row.AccuracyRate(), 4),
				RiskLevel:        model.RiskLevelForFalseRate(row.FalseRate()),
				TopSources:       top,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type SourceStat struct {
	SourceID          string                `json:"source_id"`
	Name              string                `json:"name"`
	Category          string                `json:"category"`
	ArticlesCount     int64                 `json:"articles_count"`
	FactCheckedCount  int64                 `json:"fact_checked_count"`
	VerdictedCount    int64                 `json:"verdicted_count"`
	FalseCount        int64                 `json:"false_count"`
	AvgCredibility    *float64              `json:"avg_credibility"`
	CredibilityStddev *float64              `json:"credibility_stddev"`
	FalseRate         float64               `json:"false_rate"`
	AccuracyRate      *float64              `json:"accuracy_rate"`
	ConfidenceTier    model.ConfidenceLevel `json:"confidence_tier"`
	RiskLevel         model.RiskLevel       `json:"risk_level"`
}

type SourceBreakdown struct {
	Period      Period          `json:"period"`
	SortBy      model.StatsSort `json:"sort_by"`
	MinArticles int             `json:"min_articles"`
	Category    string          `json:"category,omitempty"`
	Sources     []SourceStat    `json:"sources"`
}

func sourceStat(row repository.GroupStats) SourceStat {
	tier := model.ConfidenceUnknown
	if row.AvgConfidence != nil {
		tier = model.ConfidenceTier(*row.AvgConfidence)
	}
	return SourceStat{
		SourceID:          row.Key,
		Name:              row.Name,
		Category:          row.Category,
		ArticlesCount:     row.ArticlesCount,
		FactCheckedCount:  row.FactCheckedCount,
		VerdictedCount:    row.VerdictedCount,
		FalseCount:        row.FalseCount,
		AvgCredibility:    roundPtr(row.AvgCredibility, 1),
		CredibilityStddev: roundPtr(row.CredibilityStddev, 2),
		FalseRate:         round(row.FalseRate(), 4),
		AccuracyRate:      roundPtr(row.AccuracyRate(), 4),
		ConfidenceTier:    tier,
		RiskLevel:         model.RiskLevelForFalseRate(row.FalseRate()),
	}
}

// Sources breaks the window down per source, optionally within one category.
func (s *AnalyticsService) Sources(ctx context.Context, p SourceParams) (*SourceBreakdown, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out SourceBreakdown
	err := s.remember(ctx, "sources", p, &out, func() error {
		w := repository.Days(s.now(), p.Days)
		rows, err := s.store.SourceStatistics(ctx, w, p.MinArticles, p.Category)
		if err != nil {
			return internal(err)
		}
		repository.SortGroupStats(rows, p.SortBy)

		out = SourceBreakdown{
			Period:      periodOf(w, p.Days),
			SortBy:      p.SortBy,
			MinArticles: p.MinArticles,
			Category:    p.Category,
			Sources:     make([]SourceStat, 0, len(rows)),
		}
		for _, row := range rows {
			out.Sources = append(out.Sources, sourceStat(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type LeaderboardEntry struct {
	Rank          int         `json:"rank"`
	SourceID      string      `json:"source_id"`
	Name          string      `json:"name"`
	Category      string      `json:"category"`
	Value         float64     `json:"value"`
	ArticlesCount int64       `json:"articles_count"`
	Badge         model.Badge `json:"badge,omitempty"`
	// RankChange is "+N", "-N", "same" or "new".
	RankChange   string `json:"rank_change"`
	PreviousRank *int   `json:"previous_rank"`
}

type Leaderboard struct {
	Metric    model.LeaderboardMetric    `json:"metric"`
	Direction model.LeaderboardDirection `json:"direction"`
	Period    Period                     `json:"period"`
	Category  string                     `json:"category,omitempty"`
	Entries   []LeaderboardEntry         `json:"entries"`
}

type rankedSource struct {
	row   repository.GroupStats
	value float64
}

// metricValue reports false when the source has no value for the metric.
func metricValue(row repository.GroupStats, metric model.LeaderboardMetric) (float64, bool) {
	switch metric {
	case model.MetricCredibility:
		if row.AvgCredibility == nil {
			return 0, false
		}
		return *row.AvgCredibility, true
	case model.MetricAccuracy:
		r := row.AccuracyRate()
		if r == nil {
			return 0, false
		}
		return *r, true
	case model.MetricVolume:
		return float64(row.ArticlesCount), true
	case model.MetricConsistency:
		if row.CredibilityStddev == nil {
			return 0, false
		}
		return math.Max(0, 100-*row.CredibilityStddev), true
	}
	return 0, false
}

// rankSources orders rows for a leaderboard. The bottom direction is the
// exact reverse of the top ordering.
func rankSources(rows []repository.GroupStats, metric model.LeaderboardMetric, direction model.LeaderboardDirection) []rankedSource {
	ranked := make([]rankedSource, 0, len(rows))
	for _, row := range rows {
		if v, ok := metricValue(row, metric); ok {
			ranked = append(ranked, rankedSource{row: row, value: v})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !scoring.ScoresEqual(a.value, b.value) {
			return a.value > b.value
		}
		if a.row.ArticlesCount != b.row.ArticlesCount {
			return a.row.ArticlesCount > b.row.ArticlesCount
		}
		if a.row.Name != b.row.Name {
			return a.row.Name < b.row.Name
		}
		return a.row.Key < b.row.Key
	})
	if direction == model.DirectionBottom {
		for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		}
	}
	return ranked
}

func rankChange(current int, previous *int) string {
	switch {
	case previous == nil:
		return "new"
	case *previous == current:
		return "same"
	case *previous > current:
		return fmt.Sprintf("+%d", *previous-current)
	}
	return fmt.Sprintf("-%d", current-*previous)
}

// Leaderboard ranks sources by p.Metric and compares every rank with the one
// held over the previous window of the same length.
func (s *AnalyticsService) Leaderboard(ctx context.Context, p LeaderboardParams) (*Leaderboard, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out Leaderboard
	err := s.remember(ctx, "leaderboard", p, &out, func() error {
		w := repository.Days(s.now(), p.Days)
		rows, err := s.store.SourceStatistics(ctx, w, 1, p.Category)
		if err != nil {
			return internal(err)
		}
		prevRows, err := s.store.SourceStatistics(ctx, w.Previous(), 1, p.Category)
		if err != nil {
			return internal(err)
		}
		previous := map[string]int{}
		for i, r := range rankSources(prevRows, p.Metric, p.Direction) {
			previous[r.row.Key] = i + 1
		}

		ranked := rankSources(rows, p.Metric, p.Direction)
		if len(ranked) > p.Limit {
			ranked = ranked[:p.Limit]
		}
		out = Leaderboard{
			Metric:    p.Metric,
			Direction: p.Direction,
			Period:    periodOf(w, p.Days),
			Category:  p.Category,
			Entries:   make([]LeaderboardEntry, 0, len(ranked)),
		}
		for i, r := range ranked {
			rank := i + 1
			entry := LeaderboardEntry{
				Rank:          rank,
				SourceID:      r.row.Key,
				Name:          r.row.Name,
				Category:      r.row.Category,
				Value:         round(r.value, 4),
				ArticlesCount: r.row.ArticlesCount,
			}
			if p.Direction == model.DirectionTop {
				entry.Badge = model.BadgeForRank(rank)
			}
			if prev, ok := previous[r.row.Key]; ok {
				entry.PreviousRank = &prev
			}
			entry.RankChange = rankChange(rank, entry.PreviousRank)
			out.Entries = append(out.Entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type HistoryPoint struct {
	PeriodStart   time.Time            `json:"period_start"`
	Label         string               `json:"label"`
	ArticlesCount int64                `json:"articles_count"`
	Value         *float64             `json:"value"`
	Change        *float64             `json:"change"`
	Trend         model.TrendDirection `json:"trend"`
}

type History struct {
	SourceID     string               `json:"source_id"`
	SourceName   string               `json:"source_name"`
	Period       model.HistoryPeriod  `json:"period"`
	Metric       model.HistoryMetric  `json:"metric"`
	Points       []HistoryPoint       `json:"points"`
	Slope        *float64             `json:"slope"`
	OverallTrend model.TrendDirection `json:"overall_trend"`
}

// bucketLayout returns the date_trunc granularity, the first bucket and the
// number of buckets of a history period. all_time has no first bucket.
func bucketLayout(period model.HistoryPeriod, now time.Time) (string, time.Time, int) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch period {
	case model.PeriodMonth:
		return "month", monthStart.AddDate(0, -11, 0), 12
	case model.PeriodQuarter:
		quarterStart := time.Date(now.Year(), time.Month((int(now.Month())-1)/3*3+1), 1, 0, 0, 0, 0, time.UTC)
		return "quarter", quarterStart.AddDate(0, -21, 0), 8
	case model.PeriodYear:
		return "year", time.Date(now.Year()-4, 1, 1, 0, 0, 0, 0, time.UTC), 5
	}
	return "year", time.Time{}, 0
}

func nextBucket(granularity string, t time.Time) time.Time {
	switch granularity {
	case "month":
		return t.AddDate(0, 1, 0)
	case "quarter":
		return t.AddDate(0, 3, 0)
	}
	return t.AddDate(1, 0, 0)
}

func bucketLabel(granularity string, t time.Time) string {
	switch granularity {
	case "month":
		return t.Format("2006-01")
	case "quarter":
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	}
	return t.Format("2006")
}

func (s *AnalyticsService) deadband(metric model.HistoryMetric) float64 {
	switch metric {
	case model.HistoryVolume:
		return s.cfg.VolumeDeadband
	case model.HistoryFalseRate:
		return s.cfg.FalseRateDeadband
	}
	return s.cfg.CredibilityDeadband
}

func historyValue(b repository.Bucket, metric model.HistoryMetric) *float64 {
	switch metric {
	case model.HistoryVolume:
		v := float64(b.ArticlesCount)
		return &v
	case model.HistoryFalseRate:
		if b.VerdictedCount == 0 {
			return nil
		}
		v := float64(b.FalseCount) / float64(b.VerdictedCount)
		return &v
	}
	return b.AvgCredibility
}

func classify(diff, deadband float64) model.TrendDirection {
	switch {
	case diff > deadband:
		return model.TrendUp
	case diff < -deadband:
		return model.TrendDown
	}
	return model.TrendStable
}

// History returns a source's metric bucket by bucket with the trend between
// consecutive buckets. Empty buckets are filled in.
func (s *AnalyticsService) History(ctx context.Context, p HistoryParams) (*History, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	source, err := s.sources.Get(ctx, p.SourceID)
	if err != nil {
		return nil, translate(err, "source "+p.SourceID+" not found", "")
	}

	var out History
	err = s.remember(ctx, "history", p, &out, func() error {
		granularity, from, n := bucketLayout(p.Period, s.now())
		rows, err := s.store.HistoricalBuckets(ctx, p.SourceID, granularity, from)
		if err != nil {
			return internal(err)
		}
		byLabel := make(map[string]repository.Bucket, len(rows))
		for _, b := range rows {
			byLabel[bucketLabel(granularity, b.Start)] = b
		}
		if p.Period == model.PeriodAllTime && len(rows) > 0 {
			from = rows[0].Start
			for t := from; !t.After(s.now().UTC()); t = nextBucket(granularity, t) {
				n++
			}
		}

		out = History{
			SourceID:   source.Id,
			SourceName: source.Name,
			Period:     p.Period,
			Metric:     p.Metric,
			Points:     make([]HistoryPoint, 0, n),
		}
		deadband := s.deadband(p.Metric)
		var prev *float64
		var xs, ys []float64
		t := from
		for i := 0; i < n; i++ {
			label := bucketLabel(granularity, t)
			b := byLabel[label]
			value := historyValue(b, p.Metric)
			point := HistoryPoint{
				PeriodStart:   t,
				Label:         label,
				ArticlesCount: b.ArticlesCount,
				Value:         roundPtr(value, 4),
				Trend:         model.TrendStable,
			}
			if i > 0 && prev != nil && value != nil {
				diff := *value - *prev
				point.Change = roundPtr(&diff, 4)
				point.Trend = classify(diff, deadband)
			}
			if value != nil {
				xs = append(xs, float64(i))
				ys = append(ys, *value)
			}
			out.Points = append(out.Points, point)
			prev = value
			t = nextBucket(granularity, t)
		}

		out.OverallTrend = model.TrendStable
		if len(xs) >= 2 {
			_, beta := stat.LinearRegression(xs, ys, nil, false)
			out.Slope = roundPtr(&beta, 4)
			out.OverallTrend = classify(beta*(xs[len(xs)-1]-xs[0]), deadband)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type Hotspot struct {
	Type           model.HotspotType `json:"type"`
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	FalseRate      float64           `json:"false_rate"`
	VerdictedCount int64             `json:"verdicted_count"`
	FalseCount     int64             `json:"false_count"`
	ArticlesCount  int64             `json:"articles_count"`
	RiskLevel      model.RiskLevel   `json:"risk_level"`
}

type Hotspots struct {
	Period    Period            `json:"period"`
	Threshold float64           `json:"threshold"`
	Type      model.HotspotType `json:"type"`
	Hotspots  []Hotspot         `json:"hotspots"`
}

func hotspotsOf(kind model.HotspotType, rows []repository.GroupStats, threshold float64) []Hotspot {
	var out []Hotspot
	for _, row := range rows {
		rate := row.FalseRate()
		if row.VerdictedCount == 0 || rate < threshold {
			continue
		}
		name := row.Name
		if kind == model.HotspotCategory {
			name = row.Key
		}
		out = append(out, Hotspot{
			Type:           kind,
			ID:             row.Key,
			Name:           name,
			FalseRate:      round(rate, 4),
			VerdictedCount: row.VerdictedCount,
			FalseCount:     row.FalseCount,
			ArticlesCount:  row.ArticlesCount,
			RiskLevel:      model.RiskLevelForFalseRate(rate),
		})
	}
	return out
}

// Hotspots lists categories and/or sources whose false rate reaches
// p.Threshold, worst first.
func (s *AnalyticsService) Hotspots(ctx context.Context, p HotspotParams) (*Hotspots, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out Hotspots
	err := s.remember(ctx, "hotspots", p, &out, func() error {
		w := repository.Days(s.now(), p.Days)
		spots := []Hotspot{}
		if p.Type == model.HotspotAll || p.Type == model.HotspotCategory {
			rows, err := s.store.CategoryStatistics(ctx, w, 1)
			if err != nil {
				return internal(err)
			}
			spots = append(spots, hotspotsOf(model.HotspotCategory, rows, p.Threshold)...)
		}
		if p.Type == model.HotspotAll || p.Type == model.HotspotSource {
			rows, err := s.store.SourceStatistics(ctx, w, 1, "")
			if err != nil {
				return internal(err)
			}
			spots = append(spots, hotspotsOf(model.HotspotSource, rows, p.Threshold)...)
		}
		sort.SliceStable(spots, func(i, j int) bool {
			a, b := spots[i], spots[j]
			if a.FalseRate != b.FalseRate {
				return a.FalseRate > b.FalseRate
			}
			if a.VerdictedCount != b.VerdictedCount {
				return a.VerdictedCount > b.VerdictedCount
			}
			return a.Name < b.Name
		})
		out = Hotspots{Period: periodOf(w, p.Days), Threshold: p.Threshold, Type: p.Type, Hotspots: spots}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type LifetimeStats struct {
	TotalArticles       int64            `json:"total_articles"`
	ArticlesFactChecked int64            `json:"articles_fact_checked"`
	FactCheckCoverage   float64          `json:"fact_check_coverage"`
	TotalSources        int64            `json:"total_sources"`
	TotalVotes          int64            `json:"total_votes"`
	TotalComments       int64            `json:"total_comments"`
	AvgCredibility      *float64         `json:"avg_credibility"`
	VerdictDistribution map[string]int64 `json:"verdict_distribution"`
}

type MonthStats struct {
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	ArticlesPublished   int64     `json:"articles_published"`
	ArticlesFactChecked int64     `json:"articles_fact_checked"`
	VerdictedCount      int64     `json:"verdicted_count"`
	AvgCredibility      *float64  `json:"avg_credibility"`
	FalseRate           float64   `json:"false_rate"`
}

type TrendStats struct {
	CurrentMonth  MonthStats `json:"current_month"`
	PreviousMonth MonthStats `json:"previous_month"`
	// Changes are signed percentages such as "+12.5%", or "N/A".
	Changes map[string]string `json:"changes"`
}

type Milestone struct {
	Metric    string `json:"metric"`
	Threshold int64  `json:"threshold"`
	Current   int64  `json:"current"`
	Message   string `json:"message"`
}

type Stats struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Lifetime    *LifetimeStats `json:"lifetime,omitempty"`
	Trends      *TrendStats    `json:"trends,omitempty"`
	Milestones  []Milestone    `json:"milestones"`
}

// PercentChange formats the change from previous to current. A zero previous
// has no meaningful ratio.
func PercentChange(current, previous float64) string {
	if previous == 0 {
		return notAvailable
	}
	pct := (current - previous) / previous * 100
	if math.Abs(pct) < 0.05 {
		return "0.0%"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

func monthStats(w repository.Window, t repository.PeriodTotals) MonthStats {
	rate := 0.0
	if t.VerdictedCount > 0 {
		rate = float64(t.FalseCount) / float64(t.VerdictedCount)
	}
	return MonthStats{
		From:                w.From,
		To:                  w.To,
		ArticlesPublished:   t.ArticlesPublished,
		ArticlesFactChecked: t.ArticlesFactChecked,
		VerdictedCount:      t.VerdictedCount,
		AvgCredibility:      roundPtr(t.AvgCredibility, 1),
		FalseRate:           round(rate, 4),
	}
}

// ReachedMilestones returns the thresholds crossed between before and
// current.
func ReachedMilestones(before, current int64) []Milestone {
	out := []Milestone{}
	for _, threshold := range FactCheckMilestones {
		if current >= threshold && before < threshold {
			out = append(out, Milestone{
				Metric:    "articles_fact_checked",
				Threshold: threshold,
				Current:   current,
				Message:   fmt.Sprintf("%d articles fact-checked", threshold),
			})
		}
	}
	return out
}

// Stats reports platform wide counters. Milestones reached during the
// current month are always included.
func (s *AnalyticsService) Stats(ctx context.Context, p StatsParams) (*Stats, error) {
	var out Stats
	err := s.remember(ctx, "stats", p, &out, func() error {
		now := s.now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

		totals, err := s.store.Totals(ctx)
		if err != nil {
			return internal(err)
		}
		before, err := s.store.FactCheckedBefore(ctx, monthStart)
		if err != nil {
			return internal(err)
		}
		out = Stats{GeneratedAt: now, Milestones: ReachedMilestones(before, totals.ArticlesFactChecked)}

		if p.IncludeLifetime {
			dist := make(map[string]int64, len(model.AllVerdict))
			for _, v := range model.AllVerdict {
				dist[v.String()] = totals.VerdictDistribution[v]
			}
			coverage := 0.0
			if totals.Articles > 0 {
				coverage = float64(totals.ArticlesFactChecked) / float64(totals.Articles)
			}
			out.Lifetime = &LifetimeStats{
				TotalArticles:       totals.Articles,
				ArticlesFactChecked: totals.ArticlesFactChecked,
				FactCheckCoverage:   round(coverage, 4),
				TotalSources:        totals.Sources,
				TotalVotes:          totals.Votes,
				TotalComments:       totals.Comments,
				AvgCredibility:      roundPtr(totals.AvgCredibility, 1),
				VerdictDistribution: dist,
			}
		}

		if p.IncludeTrends {
			curWindow := repository.Window{From: monthStart, To: now}
			prevWindow := repository.Window{From: monthStart.AddDate(0, -1, 0), To: monthStart}
			cur, err := s.store.PeriodTotals(ctx, curWindow)
			if err != nil {
				return internal(err)
			}
			prev, err := s.store.PeriodTotals(ctx, prevWindow)
			if err != nil {
				return internal(err)
			}
			trends := &TrendStats{
				CurrentMonth:  monthStats(curWindow, cur),
				PreviousMonth: monthStats(prevWindow, prev),
			}
			trends.Changes = map[string]string{
				"articles_published":    PercentChange(float64(cur.ArticlesPublished), float64(prev.ArticlesPublished)),
				"articles_fact_checked": PercentChange(float64(cur.ArticlesFactChecked), float64(prev.ArticlesFactChecked)),
				"false_rate":            PercentChange(trends.CurrentMonth.FalseRate, trends.PreviousMonth.FalseRate),
				"avg_credibility":       notAvailable,
			}
			if cur.AvgCredibility != nil && prev.AvgCredibility != nil {
				trends.Changes["avg_credibility"] = PercentChange(*cur.AvgCredibility, *prev.AvgCredibility)
			}
			out.Trends = trends
		}

		if len(out.Milestones) > 0 {
			Log.WithFields(logrus.Fields{"milestones": len(out.Milestones), "fact_checked": totals.ArticlesFactChecked}).
				Info("fact-check milestone reached this month")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
