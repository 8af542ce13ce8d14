package service

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/scoring"
)

// ArticleResult is an article as the feed shows it to one viewer.
type ArticleResult struct {
	Article  model.Article
	HotScore float64
	// TrendingScore is only set on the trending list, normalized to [0, 1].
	TrendingScore *float64
	// Relevance is only set on search results.
	Relevance *float64
	// UserVote is the viewer's direction, nil for anonymous viewers or when
	// they did not vote.
	UserVote *int
}

type ArticlePage struct {
	Articles   []ArticleResult
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

type FeedService struct {
	articles ArticleStore
	votes    VoteStore
	now      func() time.Time
}

func NewFeedService(articles ArticleStore, votes VoteStore) *FeedService {
	return &FeedService{articles: articles, votes: votes, now: time.Now}
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func feedWindow(now time.Time, r model.TimeRange) repository.Window {
	d := r.Duration()
	if d == 0 {
		return repository.Window{To: now}
	}
	return repository.Window{From: now.Add(-d), To: now}
}

// List returns one page of the feed. A page past the end is empty, not an
// error.
func (s *FeedService) List(ctx context.Context, p FeedParams, viewerID string) (*ArticlePage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	filter := repository.ArticleFilter{Category: p.Category, Window: feedWindow(now, p.TimeRange)}
	if p.SortBy == model.FeedSortTop {
		filter.MinVotes = p.MinVotes
	}

	total, err := s.articles.Count(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	page := &ArticlePage{
		Articles:   []ArticleResult{},
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}
	offset := (p.Page - 1) * p.PageSize
	if int64(offset) >= total {
		return page, nil
	}

	articles, err := s.articles.Find(ctx, filter, p.SortBy, now, offset, p.PageSize)
	if err != nil {
		return nil, internal(err)
	}
	page.Articles = s.results(articles, now)
	if err := s.annotate(ctx, viewerID, page.Articles); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *FeedService) Get(ctx context.Context, id, viewerID string) (*ArticleResult, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "article "+id+" not found", "")
	}
	results := s.results([]model.Article{*article}, s.now())
	if err := s.annotate(ctx, viewerID, results); err != nil {
		return nil, err
	}
	return &results[0], nil
}

// Trending ranks the articles published within the last p.Hours by
// engagement velocity. Scores are relative to the best article of the set.
func (s *FeedService) Trending(ctx context.Context, p TrendingParams, viewerID string) ([]ArticleResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	filter := repository.ArticleFilter{
		Category: p.Category,
		Window:   repository.Window{From: now.Add(-time.Duration(p.Hours) * time.Hour), To: now},
	}
	articles, err := s.articles.FindTrending(ctx, filter, now, p.Limit)
	if err != nil {
		return nil, internal(err)
	}

	raw := make([]float64, len(articles))
	for i, a := range articles {
		raw[i] = scoring.TrendingScore(a.VoteScore, a.CommentCount, scoring.AgeHours(a.PublishedAt, now))
	}
	normalized := scoring.Normalize(raw)

	results := s.results(articles, now)
	for i := range results {
		score := normalized[i]
		results[i].TrendingScore = &score
	}
	if err := s.annotate(ctx, viewerID, results); err != nil {
		return nil, err
	}
	return results, nil
}

// Search runs a full text query over titles and summaries, best match first.
func (s *FeedService) Search(ctx context.Context, p SearchParams, viewerID string) (*ArticlePage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	offset := (p.Page - 1) * p.PageSize
	hits, total, err := s.articles.Search(ctx, p.Query, offset, p.PageSize)
	if err != nil {
		return nil, internal(err)
	}

	now := s.now()
	page := &ArticlePage{
		Articles:   make([]ArticleResult, 0, len(hits)),
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}
	for _, hit := range hits {
		relevance := hit.Relevance
		page.Articles = append(page.Articles, ArticleResult{
			Article:   hit.Article,
			HotScore:  scoring.HotScore(hit.VoteScore, scoring.AgeHours(hit.PublishedAt, now)),
			Relevance: &relevance,
		})
	}
	if err := s.annotate(ctx, viewerID, page.Articles); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *FeedService) results(articles []model.Article, now time.Time) []ArticleResult {
	out := make([]ArticleResult, len(articles))
	for i, a := range articles {
		out[i] = ArticleResult{
			Article:  a,
			HotScore: scoring.HotScore(a.VoteScore, scoring.AgeHours(a.PublishedAt, now)),
		}
	}
	return out
}

// annotate sets UserVote with a single batched lookup.
func (s *FeedService) annotate(ctx context.Context, viewerID string, results []ArticleResult) error {
	if viewerID == "" || len(results) == 0 {
		return nil
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Article.Id
	}
	directions, err := s.votes.DirectionsFor(ctx, viewerID, ids)
	if err != nil {
		return internal(err)
	}
	for i := range results {
		if d, ok := directions[results[i].Article.Id]; ok {
			d := d
			results[i].UserVote = &d
		}
	}
	return nil
}
