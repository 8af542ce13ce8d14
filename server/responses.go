package server

import (
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/service"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/jinzhu/copier"
)

type SourceResponse struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
}

type ArticleResponse struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	Url          string    `json:"url"`
	Summary      string    `json:"summary"`
	Author       string    `json:"author"`
	ImageUrl     string    `json:"image_url"`
	Category     string    `json:"category"`
	SourceID     string    `json:"source_id"`
	PublishedAt  time.Time `json:"published_at"`
	VoteScore    int       `json:"vote_score"`
	VoteCount    int       `json:"vote_count"`
	CommentCount int       `json:"comment_count"`

	FactCheckStatus  model.FactCheckStatus  `json:"fact_check_status"`
	CredibilityScore *int                   `json:"credibility_score"`
	Verdict          *model.Verdict         `json:"verdict"`
	ConfidenceLevel  *model.ConfidenceLevel `json:"confidence_level"`
	NumSources       *int                   `json:"num_sources"`
	SourceConsensus  *model.SourceConsensus `json:"source_consensus"`
	FactCheckSummary *string                `json:"fact_check_summary"`
	FactCheckedAt    *time.Time             `json:"fact_checked_at"`

	Source        *SourceResponse `json:"source,omitempty" copier:"-"`
	HotScore      float64         `json:"hot_score"`
	TrendingScore *float64        `json:"trending_score,omitempty"`
	Relevance     *float64        `json:"relevance,omitempty"`
	UserVote      *int            `json:"user_vote"`
}

type ArticleListResponse struct {
	Articles   []ArticleResponse `json:"articles"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type TrendingResponse struct {
	Articles []ArticleResponse `json:"articles"`
	Hours    int               `json:"hours"`
}

type VoteResponse struct {
	ArticleID string `json:"article_id"`
	VoteScore int    `json:"vote_score"`
	VoteCount int    `json:"vote_count"`
	UserVote  *int   `json:"user_vote"`
}

type CommentResponse struct {
	Id        string    `json:"id"`
	ArticleID string    `json:"article_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentListResponse struct {
	Comments   []CommentResponse `json:"comments"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func articleResponse(r service.ArticleResult) ArticleResponse {
	var resp ArticleResponse
	if err := copier.Copy(&resp, &r.Article); err != nil {
		Log.WithError(err).WithField("article_id", r.Article.Id).Error("fail to copy article")
	}
	if r.Article.Source != nil {
		resp.Source = &SourceResponse{}
		if err := copier.Copy(resp.Source, r.Article.Source); err != nil {
			Log.WithError(err).WithField("source_id", r.Article.Source.Id).Error("fail to copy source")
		}
	}
	resp.HotScore = r.HotScore
	resp.TrendingScore = r.TrendingScore
	resp.Relevance = r.Relevance
	resp.UserVote = r.UserVote
	return resp
}

func articleResponses(results []service.ArticleResult) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(results))
	for _, r := range results {
		out = append(out, articleResponse(r))
	}
	return out
}

func articleListResponse(page *service.ArticlePage) ArticleListResponse {
	return ArticleListResponse{
		Articles:   articleResponses(page.Articles),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

func voteResponse(t *repository.VoteTally) VoteResponse {
	var resp VoteResponse
	if err := copier.Copy(&resp, t); err != nil {
		Log.WithError(err).WithField("article_id", t.ArticleID).Error("fail to copy vote tally")
	}
	return resp
}

func commentListResponse(page *service.CommentPage) CommentListResponse {
	comments := make([]CommentResponse, 0, len(page.Comments))
	if err := copier.Copy(&comments, &page.Comments); err != nil {
		Log.WithError(err).Error("fail to copy comments")
	}
	return CommentListResponse{
		Comments:   comments,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

func commentResponse(c *model.Comment) CommentResponse {
	var resp CommentResponse
	if err := copier.Copy(&resp, c); err != nil {
		Log.WithError(err).WithField("comment_id", c.Id).Error("fail to copy comment")
	}
	return resp
}
