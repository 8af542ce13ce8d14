package repository

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ageHoursSQL = "EXTRACT(EPOCH FROM (CAST(? AS timestamptz) - articles.published_at)) / 3600.0"

	// Same formulas as scoring.HotScore and scoring.TrendingScore.
	hotOrderSQL      = "articles.vote_score / POWER(GREATEST(" + ageHoursSQL + ", 0) + 2, 1.5) DESC, articles.published_at DESC, articles.id ASC"
	trendingOrderSQL = "(articles.vote_score + 2 * articles.comment_count) / POWER(GREATEST(" + ageHoursSQL + ", 0.01), 1.5) DESC, articles.published_at DESC, articles.id ASC"

	searchDocumentSQL = "to_tsvector('english', coalesce(articles.title, '') || ' ' || coalesce(articles.summary, ''))"
)

// ArticleFilter narrows a feed query. The zero value matches every article.
type ArticleFilter struct {
	Category string
	Window   Window
	// MinVotes applies to vote_count, only the top sort sets it.
	MinVotes int
}

// SearchHit is an article plus its ts_rank for one query.
type SearchHit struct {
	model.Article
	Relevance float64
}

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) filtered(ctx context.Context, f ArticleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Article{})
	if f.Category != "" {
		q = q.Where("articles.category = ?", f.Category)
	}
	if f.Window.Bounded() {
		q = q.Where("articles.published_at >= ? AND articles.published_at < ?", f.Window.From, f.Window.To)
	}
	if f.MinVotes > 0 {
		q = q.Where("articles.vote_count >= ?", f.MinVotes)
	}
	return q
}

// Count returns how many articles match f.
func (r *ArticleRepository) Count(ctx context.Context, f ArticleFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, "count articles")
	}
	return total, nil
}

// Find returns one page of articles matching f in the requested order. Hot
// scores are evaluated at now so a whole pagination walk sees one ordering.
func (r *ArticleRepository) Find(ctx context.Context, f ArticleFilter, sortBy model.FeedSort, now time.Time, offset, limit int) ([]model.Article, error) {
	q := r.filtered(ctx, f).Preload("Source")
	switch sortBy {
	case model.FeedSortNew:
		q = q.Order("articles.published_at DESC").Order("articles.id ASC")
	case model.FeedSortTop:
		q = q.Order("articles.vote_score DESC").Order("articles.published_at DESC").Order("articles.id ASC")
	default:
		q = q.Clauses(orderByExpr(hotOrderSQL, now))
	}

	articles := []model.Article{}
	if err := q.Offset(offset).Limit(limit).Find(&articles).Error; err != nil {
		return nil, errors.Wrap(err, "find articles")
	}
	return articles, nil
}

// FindTrending returns the limit articles with the highest trending score
// among those inside f.Window.
func (r *ArticleRepository) FindTrending(ctx context.Context, f ArticleFilter, now time.Time, limit int) ([]model.Article, error) {
	articles := []model.Article{}
	err := r.filtered(ctx, f).
		Preload("Source").
		Clauses(orderByExpr(trendingOrderSQL, now)).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, errors.Wrap(err, "find trending articles")
	}
	return articles, nil
}

func orderByExpr(sql string, now time.Time) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{SQL: sql, Vars: []interface{}{now}, WithoutParentheses: true}}
}

// Get loads one article with its source.
func (r *ArticleRepository) Get(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	err := r.db.WithContext(ctx).Preload("Source").Where("id = ?", id).First(&article).Error
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get article "+id)
	}
	return &article, nil
}

// Search runs a postgres full text search over title and summary. Hits are
// ordered by ts_rank, newer first on ties.
func (r *ArticleRepository) Search(ctx context.Context, query string, offset, limit int) ([]SearchHit, int64, error) {
	match := searchDocumentSQL + " @@ plainto_tsquery('english', ?)"

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Article{}).Where(match, query).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count search hits")
	}
	if total == 0 || offset >= int(total) {
		return []SearchHit{}, total, nil
	}

	hits := []SearchHit{}
	err := r.db.WithContext(ctx).
		Table("articles").
		Select("articles.*, ts_rank("+searchDocumentSQL+", plainto_tsquery('english', ?)) AS relevance", query).
		Where("articles.deleted_at IS NULL").
		Where(match, query).
		Order("relevance DESC").Order("articles.published_at DESC").Order("articles.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&hits).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "search articles")
	}
	return hits, total, nil
}

// InsertIfAbsent creates the article unless one with the same url exists.
// It reports whether a row was inserted.
func (r *ArticleRepository) InsertIfAbsent(ctx context.Context, article *model.Article) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url"}}, DoNothing: true}).
		Create(article)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "insert article "+article.Url)
	}
	return res.RowsAffected > 0, nil
}
