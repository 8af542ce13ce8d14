package main

import (
	"context"
	"net/http"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/factfeed/cache"
	"github.com/Luismorlan/factfeed/config"
	"github.com/Luismorlan/factfeed/events"
	"github.com/Luismorlan/factfeed/factcheck"
	"github.com/Luismorlan/factfeed/ingest"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/service"
	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/worker"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// app holds every long lived dependency of one process.
type app struct {
	db      *gorm.DB
	redis   *redis.Client
	metrics statsd.ClientInterface
	bus     *gochannel.GoChannel
	cache   *cache.Cache

	articles *repository.ArticleRepository
	sources  *repository.SourceRepository

	feed       *service.FeedService
	votes      *service.VoteService
	comments   *service.CommentService
	analytics  *service.AnalyticsService
	factChecks *service.FactCheckService
}

func openDB(c config.Config) (*gorm.DB, error) {
	db, err := utils.Open(utils.DBOptions{
		Host:     c.DB.Host,
		Port:     c.DB.Port,
		User:     c.DB.User,
		Password: c.DB.Password,
		Name:     c.DB.Name,
	})
	return db, errors.Wrap(err, "connect to postgres")
}

func factCheckConfig(c config.FactCheckConfig) service.FactCheckConfig {
	out := service.DefaultFactCheckConfig()
	if c.PollInterval > 0 {
		out.PollInterval = c.PollInterval
	}
	if c.StaleGrace > 0 {
		out.StaleGrace = c.StaleGrace
	}
	for mode, d := range c.Timeouts {
		if m := model.FactCheckMode(mode); m.IsValid() && d > 0 {
			out.Timeouts[m] = d
		}
	}
	return out
}

func newApp(c config.Config) (*app, error) {
	db, err := openDB(c)
	if err != nil {
		return nil, err
	}
	a := &app{
		db: db,
		redis: utils.GetRedisClient(utils.RedisOptions{
			Host:     c.Redis.Host,
			Port:     c.Redis.Port,
			Password: c.Redis.Password,
		}),
		metrics: utils.NewDogStatsdClient(),
		bus:     events.NewEventBus(),
	}
	if a.redis == nil {
		Log.Warn("redis unavailable, analytics cache and rate limiting disabled")
	}
	a.cache = cache.New(a.redis, c.Redis.CacheTTL)

	a.articles = repository.NewArticleRepository(db)
	a.sources = repository.NewSourceRepository(db)
	votes := repository.NewVoteRepository(db)

	a.feed = service.NewFeedService(a.articles, votes)
	a.votes = service.NewVoteService(votes, a.metrics)
	a.comments = service.NewCommentService(repository.NewCommentRepository(db), a.articles)
	a.analytics = service.NewAnalyticsService(
		repository.NewAnalyticsRepository(db),
		a.sources,
		a.cache,
		service.AnalyticsConfig{
			CredibilityDeadband: c.Analytics.CredibilityDeadband,
			VolumeDeadband:      c.Analytics.VolumeDeadband,
			FalseRateDeadband:   c.Analytics.FalseRateDeadband,
		},
	)
	a.factChecks = service.NewFactCheckService(
		a.articles,
		repository.NewFactCheckRepository(db),
		factcheck.NewClient(c.FactCheck.BaseURL, c.FactCheck.APIKey, c.FactCheck.HTTPTimeout),
		events.NewPublisher(a.bus),
		factCheckConfig(c.FactCheck),
	)
	return a, nil
}

func (a *app) poller(c config.Config) *ingest.Poller {
	client := &http.Client{Timeout: c.Ingest.HTTPTimeout}
	return ingest.NewPoller(a.sources, a.articles, client, c.Ingest.UserAgent, a.metrics)
}

// eventModules consume fact-check events published by this process.
func (a *app) eventModules() []worker.Module {
	return []worker.Module{
		events.NewCacheInvalidator("cache_invalidator", a.bus, a.cache),
		events.NewReporter("fact_check_reporter", a.bus, a.metrics),
	}
}

func (a *app) health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *app) close() {
	a.factChecks.Shutdown()
	if err := a.bus.Close(); err != nil {
		Log.WithError(err).Warn("fail to close event bus")
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if c, ok := a.metrics.(*statsd.Client); ok {
		c.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
