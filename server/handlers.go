package server

import (
	"net/http"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/server/middlewares"
	"github.com/Luismorlan/factfeed/service"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Health != nil {
		if err := h.deps.Health(c.Request.Context()); err != nil {
			Log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listArticles(c *gin.Context) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := h.deps.Feed.List(c.Request.Context(), q.params(), middlewares.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleListResponse(page))
}

func (h *handlers) searchArticles(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := service.SearchParams{Query: q.Q, Page: q.Page, PageSize: q.PageSize}
	page, err := h.deps.Feed.Search(c.Request.Context(), p, middlewares.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleListResponse(page))
}

func (h *handlers) trendingArticles(c *gin.Context) {
	var q trendingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := service.TrendingParams{Category: q.Category, Hours: q.Hours, Limit: q.Limit}
	results, err := h.deps.Feed.Trending(c.Request.Context(), p, middlewares.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrendingResponse{Articles: articleResponses(results), Hours: q.Hours})
}

func (h *handlers) getArticle(c *gin.Context) {
	result, err := h.deps.Feed.Get(c.Request.Context(), c.Param("id"), middlewares.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse(*result))
}

func (h *handlers) castVote(c *gin.Context) {
	var body voteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	tally, err := h.deps.Votes.Cast(c.Request.Context(), middlewares.UserID(c), c.Param("id"), *body.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResponse(tally))
}

func (h *handlers) removeVote(c *gin.Context) {
	tally, err := h.deps.Votes.Remove(c.Request.Context(), middlewares.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResponse(tally))
}

func (h *handlers) listComments(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := h.deps.Comments.List(c.Request.Context(), c.Param("id"), q.Page, q.PageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentListResponse(page))
}

func (h *handlers) createComment(c *gin.Context) {
	var body commentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	comment, err := h.deps.Comments.Create(c.Request.Context(), middlewares.UserID(c), c.Param("id"), *body.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentResponse(comment))
}

func (h *handlers) deleteComment(c *gin.Context) {
	err := h.deps.Comments.Delete(c.Request.Context(), middlewares.UserID(c), c.Param("id"), c.Param("comment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) startFactCheck(c *gin.Context) {
	var q factCheckQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	job, err := h.deps.FactChecks.Start(c.Request.Context(), c.Param("id"), model.FactCheckMode(q.Mode), q.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"article_id": c.Param("id"), "job": job})
}

func (h *handlers) factCheckStatus(c *gin.Context) {
	status, err := h.deps.FactChecks.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handlers) stats(c *gin.Context) {
	var q statsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := service.StatsParams{IncludeLifetime: q.IncludeLifetime, IncludeTrends: q.IncludeTrends}
	stats, err := h.deps.Analytics.Stats(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) categories(c *gin.Context) {
	var q categoriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.deps.Analytics.Categories(c.Request.Context(), q.params())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) sources(c *gin.Context) {
	var q sourcesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.deps.Analytics.Sources(c.Request.Context(), q.params())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) leaderboard(c *gin.Context) {
	var q leaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.deps.Analytics.Leaderboard(c.Request.Context(), q.params())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) history(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := service.HistoryParams{
		SourceID: c.Param("source_id"),
		Period:   model.HistoryPeriod(q.Period),
		Metric:   model.HistoryMetric(q.Metric),
	}
	out, err := h.deps.Analytics.History(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) hotspots(c *gin.Context) {
	var q hotspotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.deps.Analytics.Hotspots(c.Request.Context(), q.params())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
