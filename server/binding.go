package server

import (
	"reflect"
	"strings"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/service"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report request names (sort_by) instead of Go names (SortBy).
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

type feedQuery struct {
	Category  string `form:"category"`
	SortBy    string `form:"sort_by,default=hot" binding:"oneof=hot new top"`
	TimeRange string `form:"time_range,default=all" binding:"oneof=hour day week month year all"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
	MinVotes  int    `form:"min_votes,default=0"`
}

func (q feedQuery) params() service.FeedParams {
	return service.FeedParams{
		Category:  q.Category,
		SortBy:    model.FeedSort(q.SortBy),
		TimeRange: model.TimeRange(q.TimeRange),
		Page:      q.Page,
		PageSize:  q.PageSize,
		MinVotes:  q.MinVotes,
	}
}

type trendingQuery struct {
	Category string `form:"category"`
	Hours    int    `form:"hours,default=24"`
	Limit    int    `form:"limit,default=20"`
}

type searchQuery struct {
	Q        string `form:"q" binding:"required"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

type pageQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

type voteBody struct {
	Direction *int `json:"direction" binding:"required"`
}

type commentBody struct {
	Body *string `json:"body" binding:"required"`
}

type factCheckQuery struct {
	Mode  string `form:"mode,default=standard" binding:"oneof=standard thorough synthesis"`
	Force bool   `form:"force,default=false"`
}

type categoriesQuery struct {
	Days        int    `form:"days,default=30"`
	MinArticles int    `form:"min_articles,default=5"`
	SortBy      string `form:"sort_by,default=credibility" binding:"oneof=credibility volume false_rate"`
}

func (q categoriesQuery) params() service.CategoryParams {
	return service.CategoryParams{Days: q.Days, MinArticles: q.MinArticles, SortBy: model.StatsSort(q.SortBy)}
}

type sourcesQuery struct {
	Days        int    `form:"days,default=30"`
	MinArticles int    `form:"min_articles,default=5"`
	SortBy      string `form:"sort_by,default=credibility" binding:"oneof=credibility volume false_rate"`
	Category    string `form:"category"`
}

func (q sourcesQuery) params() service.SourceParams {
	return service.SourceParams{
		Days:        q.Days,
		MinArticles: q.MinArticles,
		SortBy:      model.StatsSort(q.SortBy),
		Category:    q.Category,
	}
}

type leaderboardQuery struct {
	Metric    string `form:"metric,default=credibility" binding:"oneof=credibility accuracy volume consistency"`
	Limit     int    `form:"limit,default=10"`
	Direction string `form:"direction,default=top" binding:"oneof=top bottom"`
	Days      int    `form:"days,default=30"`
	Category  string `form:"category"`
}

func (q leaderboardQuery) params() service.LeaderboardParams {
	return service.LeaderboardParams{
		Metric:    model.LeaderboardMetric(q.Metric),
		Limit:     q.Limit,
		Direction: model.LeaderboardDirection(q.Direction),
		Days:      q.Days,
		Category:  q.Category,
	}
}

type historyQuery struct {
	Period string `form:"period,default=month" binding:"oneof=month quarter year all_time"`
	Metric string `form:"metric,default=credibility" binding:"oneof=credibility volume false_rate"`
}

type hotspotsQuery struct {
	Days      int     `form:"days,default=30"`
	Threshold float64 `form:"threshold,default=0.3"`
	Type      string  `form:"hotspot_type,default=all" binding:"oneof=all category source"`
}

func (q hotspotsQuery) params() service.HotspotParams {
	return service.HotspotParams{Days: q.Days, Threshold: q.Threshold, Type: model.HotspotType(q.Type)}
}

type statsQuery struct {
	IncludeLifetime bool `form:"include_lifetime,default=true"`
	IncludeTrends   bool `form:"include_trends,default=true"`
}
