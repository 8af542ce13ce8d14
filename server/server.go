// Package server exposes the feed, voting, comment, fact-check and analytics
// services over a JSON REST api.
package server

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/server/middlewares"
	"github.com/Luismorlan/factfeed/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

type FeedAPI interface {
	List(ctx context.Context, p service.FeedParams, viewerID string) (*service.ArticlePage, error)
	Get(ctx context.Context, id, viewerID string) (*service.ArticleResult, error)
	Trending(ctx context.Context, p service.TrendingParams, viewerID string) ([]service.ArticleResult, error)
	Search(ctx context.Context, p service.SearchParams, viewerID string) (*service.ArticlePage, error)
}

type VoteAPI interface {
	Cast(ctx context.Context, userID, articleID string, direction int) (*repository.VoteTally, error)
	Remove(ctx context.Context, userID, articleID string) (*repository.VoteTally, error)
}

type CommentAPI interface {
	Create(ctx context.Context, userID, articleID, body string) (*model.Comment, error)
	List(ctx context.Context, articleID string, page, pageSize int) (*service.CommentPage, error)
	Delete(ctx context.Context, userID, articleID, commentID string) error
}

type FactCheckAPI interface {
	Start(ctx context.Context, articleID string, mode model.FactCheckMode, force bool) (*service.FactCheckJobView, error)
	Status(ctx context.Context, articleID string) (*service.FactCheckStatusView, error)
}

type AnalyticsAPI interface {
	Categories(ctx context.Context, p service.CategoryParams) (*service.CategoryBreakdown, error)
	Sources(ctx context.Context, p service.SourceParams) (*service.SourceBreakdown, error)
	Leaderboard(ctx context.Context, p service.LeaderboardParams) (*service.Leaderboard, error)
	History(ctx context.Context, p service.HistoryParams) (*service.History, error)
	Hotspots(ctx context.Context, p service.HotspotParams) (*service.Hotspots, error)
	Stats(ctx context.Context, p service.StatsParams) (*service.Stats, error)
}

type Deps struct {
	Feed       FeedAPI
	Votes      VoteAPI
	Comments   CommentAPI
	FactChecks FactCheckAPI
	Analytics  AnalyticsAPI

	// JWTSecret signs viewer tokens. Write routes reject every request when
	// it is empty.
	JWTSecret    []byte
	AllowOrigins []string
	// RateLimiter may be nil.
	RateLimiter *middlewares.RateLimiter
	Tracing     bool
	ServiceName string
	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AddAllowHeaders("Authorization")
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}

func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.AccessLog())
	router.Use(corsMiddleware(deps.AllowOrigins))
	if deps.Tracing {
		router.Use(gintrace.Middleware(deps.ServiceName))
	}

	h := &handlers{deps: deps}
	router.GET("/health", h.health)

	limited := router.Group("/")
	limited.Use(deps.RateLimiter.Middleware())

	viewer := middlewares.JWT(deps.JWTSecret, false)
	user := middlewares.JWT(deps.JWTSecret, true)

	articles := limited.Group("/articles")
	{
		articles.GET("", viewer, h.listArticles)
		articles.GET("/search", viewer, h.searchArticles)
		articles.GET("/trending", viewer, h.trendingArticles)
		articles.GET("/:id", viewer, h.getArticle)

		articles.POST("/:id/vote", user, h.castVote)
		articles.DELETE("/:id/vote", user, h.removeVote)

		articles.GET("/:id/comments", h.listComments)
		articles.POST("/:id/comments", user, h.createComment)
		articles.DELETE("/:id/comments/:comment_id", user, h.deleteComment)

		articles.POST("/:id/fact-check", user, h.startFactCheck)
		articles.GET("/:id/fact-check", h.factCheckStatus)
	}

	analytics := limited.Group("/analytics")
	{
		analytics.GET("/stats", h.stats)
		analytics.GET("/categories", h.categories)
		analytics.GET("/sources", h.sources)
		analytics.GET("/sources/:source_id/history", h.history)
		analytics.GET("/leaderboard", h.leaderboard)
		analytics.GET("/hotspots", h.hotspots)
	}

	return router
}
