package service

import (
	"strings"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/utils/apperr"
)

const (
	MinDays, MaxDays               = 1, 365
	MinMinArticles, MaxMinArticles = 1, 100
	MinLimit, MaxLimit             = 5, 50
	MinThreshold, MaxThreshold     = 0.1, 1.0
	MaxPageSize                    = 100
	MinTrendingHours               = 1
	MaxTrendingHours               = 168
	MaxTrendingLimit               = 100
	MaxCommentLength               = 10000
)

func checkRange(field string, v, min, max int) error {
	if v < min || v > max {
		return apperr.NewValidation(field, "%s must be between %d and %d, got %d", field, min, max, v)
	}
	return nil
}

func checkPage(page, pageSize int) error {
	if page < 1 {
		return apperr.NewValidation("page", "page must be at least 1, got %d", page)
	}
	return checkRange("page_size", pageSize, 1, MaxPageSize)
}

func checkEnum(field string, valid bool, value string) error {
	if !valid {
		return apperr.NewValidation(field, "unsupported %s %q", field, value)
	}
	return nil
}

// FeedParams selects one page of the article feed.
type FeedParams struct {
	Category  string
	SortBy    model.FeedSort
	TimeRange model.TimeRange
	Page      int
	PageSize  int
	// MinVotes only applies to the top sort.
	MinVotes int
}

func (p FeedParams) Validate() error {
	if err := checkEnum("sort_by", p.SortBy.IsValid(), string(p.SortBy)); err != nil {
		return err
	}
	if err := checkEnum("time_range", p.TimeRange.IsValid(), string(p.TimeRange)); err != nil {
		return err
	}
	if p.MinVotes < 0 {
		return apperr.NewValidation("min_votes", "min_votes must not be negative")
	}
	return checkPage(p.Page, p.PageSize)
}

// TrendingParams selects the trending list.
type TrendingParams struct {
	Category string
	Hours    int
	Limit    int
}

func (p TrendingParams) Validate() error {
	if err := checkRange("hours", p.Hours, MinTrendingHours, MaxTrendingHours); err != nil {
		return err
	}
	return checkRange("limit", p.Limit, 1, MaxTrendingLimit)
}

type SearchParams struct {
	Query    string
	Page     int
	PageSize int
}

func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return apperr.NewValidation("q", "q must contain at least one non blank character")
	}
	return checkPage(p.Page, p.PageSize)
}

type CategoryParams struct {
	Days        int
	MinArticles int
	SortBy      model.StatsSort
}

func (p CategoryParams) Validate() error {
	if err := checkRange("days", p.Days, MinDays, MaxDays); err != nil {
		return err
	}
	if err := checkRange("min_articles", p.MinArticles, MinMinArticles, MaxMinArticles); err != nil {
		return err
	}
	return checkEnum("sort_by", p.SortBy.IsValid(), string(p.SortBy))
}

type SourceParams struct {
	Days        int
	MinArticles int
	SortBy      model.StatsSort
	Category    string
}

func (p SourceParams) Validate() error {
	return CategoryParams{Days: p.Days, MinArticles: p.MinArticles, SortBy: p.SortBy}.Validate()
}

type LeaderboardParams struct {
	Metric    model.LeaderboardMetric
	Limit     int
	Direction model.LeaderboardDirection
	Days      int
	Category  string
}

func (p LeaderboardParams) Validate() error {
	if err := checkEnum("metric", p.Metric.IsValid(), string(p.Metric)); err != nil {
		return err
	}
	if err := checkEnum("direction", p.Direction.IsValid(), string(p.Direction)); err != nil {
		return err
	}
	if err := checkRange("limit", p.Limit, MinLimit, MaxLimit); err != nil {
		return err
	}
	return checkRange("days", p.Days, MinDays, MaxDays)
}

type HistoryParams struct {
	SourceID string
	Period   model.HistoryPeriod
	Metric   model.HistoryMetric
}

func (p HistoryParams) Validate() error {
	if strings.TrimSpace(p.SourceID) == "" {
		return apperr.NewValidation("source_id", "source_id is required")
	}
	if err := checkEnum("period", p.Period.IsValid(), string(p.Period)); err != nil {
		return err
	}
	return checkEnum("metric", p.Metric.IsValid(), string(p.Metric))
}

type HotspotParams struct {
	Days      int
	Threshold float64
	Type      model.HotspotType
}

func (p HotspotParams) Validate() error {
	if err := checkRange("days", p.Days, MinDays, MaxDays); err != nil {
		return err
	}
	if p.Threshold < MinThreshold || p.Threshold > MaxThreshold {
		return apperr.NewValidation("threshold", "threshold must be between %.1f and %.1f, got %g", MinThreshold, MaxThreshold, p.Threshold)
	}
	return checkEnum("hotspot_type", p.Type.IsValid(), string(p.Type))
}

type StatsParams struct {
	IncludeLifetime bool
	IncludeTrends   bool
}
