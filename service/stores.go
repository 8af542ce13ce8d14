// Package service holds the business rules behind every endpoint. Services
// validate their parameter objects once, talk to storage through the narrow
// interfaces below and return errors from the apperr taxonomy.
package service

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/events"
	"github.com/Luismorlan/factfeed/factcheck"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
)

type ArticleStore interface {
	Count(ctx context.Context, f repository.ArticleFilter) (int64, error)
	Find(ctx context.Context, f repository.ArticleFilter, sortBy model.FeedSort, now time.Time, offset, limit int) ([]model.Article, error)
	FindTrending(ctx context.Context, f repository.ArticleFilter, now time.Time, limit int) ([]model.Article, error)
	Get(ctx context.Context, id string) (*model.Article, error)
	Search(ctx context.Context, query string, offset, limit int) ([]repository.SearchHit, int64, error)
}

type VoteStore interface {
	Cast(ctx context.Context, userID, articleID string, direction int) (repository.VoteTally, error)
	Remove(ctx context.Context, userID, articleID string) (repository.VoteTally, error)
	DirectionsFor(ctx context.Context, userID string, articleIDs []string) (map[string]int, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	List(ctx context.Context, articleID string, offset, limit int) ([]model.Comment, int64, error)
	Delete(ctx context.Context, userID, articleID, commentID string) error
}

type SourceStore interface {
	Get(ctx context.Context, id string) (*model.Source, error)
}

type AnalyticsStore interface {
	CategoryStatistics(ctx context.Context, w repository.Window, minArticles int) ([]repository.GroupStats, error)
	SourceStatistics(ctx context.Context, w repository.Window, minArticles int, category string) ([]repository.GroupStats, error)
	HistoricalBuckets(ctx context.Context, sourceID, granularity string, from time.Time) ([]repository.Bucket, error)
	Totals(ctx context.Context) (repository.Totals, error)
	PeriodTotals(ctx context.Context, w repository.Window) (repository.PeriodTotals, error)
	FactCheckedBefore(ctx context.Context, t time.Time) (int64, error)
}

type FactCheckStore interface {
	CreateJob(ctx context.Context, job *model.FactCheckJob) error
	SetExternalID(ctx context.Context, jobID, externalID string) error
	RecordProgress(ctx context.Context, jobID, phase string, progress float64, at time.Time) error
	Complete(ctx context.Context, jobID string, record *model.FactCheckRecord, at time.Time) error
	Fail(ctx context.Context, jobID, articleID, reason string, at time.Time) error
	LatestJob(ctx context.Context, articleID string) (*model.FactCheckJob, error)
	LatestRecord(ctx context.Context, articleID string) (*model.FactCheckRecord, error)
	StalePending(ctx context.Context, now time.Time, grace time.Duration) ([]model.FactCheckJob, error)
}

// FactChecker is the remote fact-check service.
type FactChecker interface {
	Submit(ctx context.Context, req factcheck.SubmitRequest) (string, error)
	Status(ctx context.Context, jobID string) (factcheck.JobStatus, error)
}

type FactCheckEvents interface {
	FactCheckFinished(evt events.FactCheckFinished) error
}

// ResponseCache caches serialized analytics responses. *cache.Cache satisfies
// it, including a nil one.
type ResponseCache interface {
	Get(ctx context.Context, name string, params interface{}, dest interface{}) (bool, error)
	Set(ctx context.Context, name string, params interface{}, value interface{}) error
}
