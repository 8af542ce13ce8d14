package repository

import (
	"context"
	"sort"
	"time"

	"github.com/Luismorlan/factfeed/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TopSourcesPerCategory is how many source names a category row carries.
const TopSourcesPerCategory = 3

// GroupStats is one aggregated row of a category or source breakdown.
type GroupStats struct {
	// Key is the category name or the source id.
	Key  string
	Name string

	ArticlesCount    int64
	FactCheckedCount int64
	// VerdictedCount excludes UNVERIFIED verdicts.
	VerdictedCount int64
	FalseCount     int64
	TrueCount      int64
	// AvgCredibility is nil when no article of the group has a score.
	AvgCredibility *float64

	// Source rows only.
	AvgConfidence     *float64
	CredibilityStddev *float64
	Category          string

	// Category rows only, most prolific first.
	TopSources []string `gorm:"-"`
}

// FalseRate is FalseCount over VerdictedCount, 0 without verdicts.
func (g GroupStats) FalseRate() float64 {
	if g.VerdictedCount == 0 {
		return 0
	}
	return float64(g.FalseCount) / float64(g.VerdictedCount)
}

// AccuracyRate is TrueCount over VerdictedCount, nil without verdicts.
func (g GroupStats) AccuracyRate() *float64 {
	if g.VerdictedCount == 0 {
		return nil
	}
	r := float64(g.TrueCount) / float64(g.VerdictedCount)
	return &r
}

// Bucket is one time bucket of a source history.
type Bucket struct {
	Start          time.Time
	ArticlesCount  int64
	AvgCredibility *float64
	VerdictedCount int64
	FalseCount     int64
}

// Totals are lifetime counters across the whole database.
type Totals struct {
	Articles            int64
	ArticlesFactChecked int64
	Sources             int64
	Votes               int64
	Comments            int64
	AvgCredibility      *float64
	VerdictDistribution map[model.Verdict]int64
}

// PeriodTotals are counters restricted to one window.
type PeriodTotals struct {
	ArticlesPublished   int64
	ArticlesFactChecked int64
	VerdictedCount      int64
	FalseCount          int64
	AvgCredibility      *float64
}

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// counterColumns are the aggregates shared by every grouped query, over
// articles aliased as "a".
func counterColumns(b sq.SelectBuilder) sq.SelectBuilder {
	return b.
		Column("COUNT(*) AS articles_count").
		Column("COUNT(*) FILTER (WHERE a.fact_checked_at IS NOT NULL) AS fact_checked_count").
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.verdict IS NOT NULL AND a.verdict <> ?) AS verdicted_count", model.VerdictUnverified)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.verdict IN (?, ?)) AS false_count", model.VerdictFalse, model.VerdictMostlyFalse)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.verdict IN (?, ?)) AS true_count", model.VerdictTrue, model.VerdictMostlyTrue)).
		Column("AVG(a.credibility_score)::float8 AS avg_credibility")
}

func inWindow(b sq.SelectBuilder, column string, w Window) sq.SelectBuilder {
	if w.Bounded() {
		b = b.Where(sq.GtOrEq{column: w.From})
	}
	if !w.To.IsZero() {
		b = b.Where(sq.Lt{column: w.To})
	}
	return b
}

func liveArticles(b sq.SelectBuilder) sq.SelectBuilder {
	return b.Where(sq.Eq{"a.deleted_at": nil})
}

func liveSources(b sq.SelectBuilder) sq.SelectBuilder {
	return b.Where(sq.Eq{"s.deleted_at": nil})
}

// CategoryStatistics aggregates articles published in w per category and keeps
// only categories with at least minArticles articles. Rows come back in no
// particular order, see SortGroupStats.
func (r *AnalyticsRepository) CategoryStatistics(ctx context.Context, w Window, minArticles int) ([]GroupStats, error) {
	q := counterColumns(psql.Select("a.category AS key", "a.category AS name")).
		From("articles a")
	q = inWindow(liveArticles(q), "a.published_at", w).
		Where(sq.NotEq{"a.category": ""}).
		GroupBy("a.category").
		Having("COUNT(*) >= ?", minArticles)

	rows := []GroupStats{}
	if err := raw(r.db.WithContext(ctx), q, &rows); err != nil {
		return nil, errors.Wrap(err, "category statistics")
	}
	if len(rows) == 0 {
		return rows, nil
	}

	top, err := r.topSources(ctx, w)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TopSources = top[rows[i].Key]
		if rows[i].TopSources == nil {
			rows[i].TopSources = []string{}
		}
	}
	return rows, nil
}

// topSources returns, per category, the names of the sources with most
// articles in w. Ties are broken by name.
func (r *AnalyticsRepository) topSources(ctx context.Context, w Window) (map[string][]string, error) {
	inner := psql.
		Select("a.category", "s.name",
			"ROW_NUMBER() OVER (PARTITION BY a.category ORDER BY COUNT(*) DESC, s.name ASC) AS rn").
		From("articles a").
		Join("sources s ON s.id = a.source_id")
	inner = inWindow(liveSources(liveArticles(inner)), "a.published_at", w).
		Where(sq.NotEq{"a.category": ""}).
		GroupBy("a.category", "s.name")

	q := psql.Select("category", "name").
		FromSelect(inner, "ranked").
		Where(sq.LtOrEq{"rn": TopSourcesPerCategory}).
		OrderBy("category", "rn")

	var rows []struct {
		Category string
		Name     string
	}
	if err := raw(r.db.WithContext(ctx), q, &rows); err != nil {
		return nil, errors.Wrap(err, "top sources per category")
	}
	out := map[string][]string{}
	for _, row := range rows {
		out[row.Category] = append(out[row.Category], row.Name)
	}
	return out, nil
}

// SourceStatistics aggregates articles published in w per source, optionally
// inside one category, keeping sources with at least minArticles articles.
func (r *AnalyticsRepository) SourceStatistics(ctx context.Context, w Window, minArticles int, category string) ([]GroupStats, error) {
	q := counterColumns(psql.Select("s.id AS key", "s.name AS name", "MAX(s.category) AS category")).
		Column(sq.Expr(
			"AVG(CASE a.confidence_level WHEN ? THEN 3 WHEN ? THEN 2 WHEN ? THEN 1 END)::float8 AS avg_confidence",
			model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow,
		)).
		Column("STDDEV_POP(a.credibility_score)::float8 AS credibility_stddev").
		From("articles a").
		Join("sources s ON s.id = a.source_id")
	q = inWindow(liveSources(liveArticles(q)), "a.published_at", w)
	if category != "" {
		q = q.Where(sq.Eq{"a.category": category})
	}
	q = q.GroupBy("s.id", "s.name").Having("COUNT(*) >= ?", minArticles)

	rows := []GroupStats{}
	if err := raw(r.db.WithContext(ctx), q, &rows); err != nil {
		return nil, errors.Wrap(err, "source statistics")
	}
	return rows, nil
}

// HistoricalBuckets groups a source's articles into date_trunc buckets of the
// given granularity (month, quarter or year), in UTC, oldest first. Buckets
// without articles are absent.
func (r *AnalyticsRepository) HistoricalBuckets(ctx context.Context, sourceID, granularity string, from time.Time) ([]Bucket, error) {
	switch granularity {
	case "month", "quarter", "year":
	default:
		return nil, errors.Errorf("unsupported granularity %q", granularity)
	}
	bucket := "date_trunc('" + granularity + "', a.published_at AT TIME ZONE 'UTC')"

	q := psql.Select(bucket+" AS start").
		Column("COUNT(*) AS articles_count").
		Column("AVG(a.credibility_score)::float8 AS avg_credibility").
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.verdict IS NOT NULL AND a.verdict <> ?) AS verdicted_count", model.VerdictUnverified)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.verdict IN (?, ?)) AS false_count", model.VerdictFalse, model.VerdictMostlyFalse)).
		From("articles a").
		Where(sq.Eq{"a.source_id": sourceID})
	q = liveArticles(q)
	if !from.IsZero() {
		q = q.Where(sq.GtOrEq{"a.published_at": from})
	}
	q = q.GroupBy("1").OrderBy("1")

	rows := []Bucket{}
	if err := raw(r.db.WithContext(ctx), q, &rows); err != nil {
		return nil, errors.Wrap(err, "historical buckets")
	}
	for i := range rows {
		rows[i].Start = time.Date(rows[i].Start.Year(), rows[i].Start.Month(), rows[i].Start.Day(), 0, 0, 0, 0, time.UTC)
	}
	return rows, nil
}

// Totals computes lifetime counters.
func (r *AnalyticsRepository) Totals(ctx context.Context) (Totals, error) {
	db := r.db.WithContext(ctx)
	out := Totals{VerdictDistribution: map[model.Verdict]int64{}}

	var articles struct {
		Articles            int64
		ArticlesFactChecked int64
		AvgCredibility      *float64
	}
	q := liveArticles(psql.Select(
		"COUNT(*) AS articles",
		"COUNT(*) FILTER (WHERE a.fact_checked_at IS NOT NULL) AS articles_fact_checked",
		"AVG(a.credibility_score)::float8 AS avg_credibility",
	).From("articles a"))
	if err := raw(db, q, &articles); err != nil {
		return out, errors.Wrap(err, "article totals")
	}
	out.Articles = articles.Articles
	out.ArticlesFactChecked = articles.ArticlesFactChecked
	out.AvgCredibility = articles.AvgCredibility

	if err := db.Model(&model.Source{}).Count(&out.Sources).Error; err != nil {
		return out, errors.Wrap(err, "count sources")
	}
	if err := db.Model(&model.Vote{}).Count(&out.Votes).Error; err != nil {
		return out, errors.Wrap(err, "count votes")
	}
	if err := db.Model(&model.Comment{}).Count(&out.Comments).Error; err != nil {
		return out, errors.Wrap(err, "count comments")
	}

	var dist []struct {
		Verdict model.Verdict
		Count   int64
	}
	dq := liveArticles(psql.Select("a.verdict AS verdict", "COUNT(*) AS count").
		From("articles a").
		Where(sq.NotEq{"a.verdict": nil})).
		GroupBy("a.verdict")
	if err := raw(db, dq, &dist); err != nil {
		return out, errors.Wrap(err, "verdict distribution")
	}
	for _, d := range dist {
		out.VerdictDistribution[d.Verdict] = d.Count
	}
	return out, nil
}

// PeriodTotals counts articles published in w and articles fact-checked in w.
// Verdict counters and credibility refer to the latter.
func (r *AnalyticsRepository) PeriodTotals(ctx context.Context, w Window) (PeriodTotals, error) {
	from, to := w.From, w.To
	q := liveArticles(psql.Select().
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.published_at >= ? AND a.published_at < ?) AS articles_published", from, to)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.fact_checked_at >= ? AND a.fact_checked_at < ?) AS articles_fact_checked", from, to)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.fact_checked_at >= ? AND a.fact_checked_at < ? AND a.verdict IS NOT NULL AND a.verdict <> ?) AS verdicted_count",
			from, to, model.VerdictUnverified)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE a.fact_checked_at >= ? AND a.fact_checked_at < ? AND a.verdict IN (?, ?)) AS false_count",
			from, to, model.VerdictFalse, model.VerdictMostlyFalse)).
		Column(sq.Expr("(AVG(a.credibility_score) FILTER (WHERE a.fact_checked_at >= ? AND a.fact_checked_at < ?))::float8 AS avg_credibility", from, to)).
		From("articles a"))

	var out PeriodTotals
	if err := raw(r.db.WithContext(ctx), q, &out); err != nil {
		return PeriodTotals{}, errors.Wrap(err, "period totals")
	}
	return out, nil
}

// FactCheckedBefore counts articles whose fact check completed before t.
func (r *AnalyticsRepository) FactCheckedBefore(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Article{}).
		Where("fact_checked_at IS NOT NULL AND fact_checked_at < ?", t).
		Count(&n).Error
	return n, errors.Wrap(err, "count fact checked before")
}

// SortGroupStats orders rows by the requested key, descending, then by article
// count descending, then by name ascending.
func SortGroupStats(rows []GroupStats, by model.StatsSort) {
	key := func(g GroupStats) float64 {
		switch by {
		case model.StatsSortVolume:
			return float64(g.ArticlesCount)
		case model.StatsSortFalseRate:
			return g.FalseRate()
		}
		if g.AvgCredibility == nil {
			// unscored groups sink below every scored one
			return -1
		}
		return *g.AvgCredibility
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := key(rows[i]), key(rows[j])
		if ki != kj {
			return ki > kj
		}
		if rows[i].ArticlesCount != rows[j].ArticlesCount {
			return rows[i].ArticlesCount > rows[j].ArticlesCount
		}
		return rows[i].Name < rows[j].Name
	})
}
