package repository

import (
	"testing"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNewPaginationIsComplete(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	source := seedSource(t, db, "wire", "tech")
	want := map[string]bool{}
	for i := 0; i < 11; i++ {
		// two articles share each timestamp to exercise the id tie-break
		a := seedArticle(t, db, source, "tech", testNow.Add(-time.Duration(i/2)*time.Hour))
		want[a.Id] = true
	}

	for _, pageSize := range []int{1, 3, 4, 11, 20} {
		seen := map[string]bool{}
		var prev *model.Article
		for offset := 0; offset < 11; offset += pageSize {
			page, err := repo.Find(bg, ArticleFilter{}, model.FeedSortNew, testNow, offset, pageSize)
			require.NoError(t, err)
			for i := range page {
				a := page[i]
				assert.False(t, seen[a.Id], "duplicate %s with page size %d", a.Id, pageSize)
				seen[a.Id] = true
				if prev != nil {
					assert.False(t, a.PublishedAt.After(prev.PublishedAt))
				}
				prev = &a
			}
		}
		assert.Equal(t, want, seen, "page size %d", pageSize)
	}
}

func TestFindHotAndTimeRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	source := seedSource(t, db, "wire", "tech")

	old := seedArticle(t, db, source, "tech", testNow.Add(-72*time.Hour))
	fresh := seedArticle(t, db, source, "tech", testNow.Add(-time.Hour))
	popular := seedArticle(t, db, source, "tech", testNow.Add(-5*time.Hour))
	require.NoError(t, db.Model(&model.Article{}).Where("id = ?", popular.Id).Update("vote_score", 30).Error)
	require.NoError(t, db.Model(&model.Article{}).Where("id = ?", old.Id).Update("vote_score", 30).Error)

	hot, err := repo.Find(bg, ArticleFilter{}, model.FeedSortHot, testNow, 0, 10)
	require.NoError(t, err)
	require.Len(t, hot, 3)
	assert.Equal(t, popular.Id, hot[0].Id)
	assert.Equal(t, old.Id, hot[1].Id)
	assert.Equal(t, fresh.Id, hot[2].Id)

	day := ArticleFilter{Window: Window{From: testNow.Add(-24 * time.Hour), To: testNow}}
	n, err := repo.Count(bg, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFindOrderMatchesScoring(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	source := seedSource(t, db, "wire", "tech")

	seeds := []struct {
		age   time.Duration
		score int
		count int
	}{
		{time.Hour, 0, 0}, {time.Hour, 0, 0}, {3 * time.Hour, 12, 14},
		{10 * time.Hour, 40, 44}, {30 * time.Hour, 40, 40}, {2 * time.Hour, -3, 5},
		{6 * time.Hour, 7, 7}, {48 * time.Hour, 90, 95},
	}
	for _, s := range seeds {
		a := seedArticle(t, db, source, "tech", testNow.Add(-s.age))
		require.NoError(t, db.Model(&model.Article{}).Where("id = ?", a.Id).
			Updates(map[string]interface{}{"vote_score": s.score, "vote_count": s.count}).Error)
	}
	ids := func(articles []model.Article) []string {
		out := make([]string, len(articles))
		for i, a := range articles {
			out[i] = a.Id
		}
		return out
	}

	hot, err := repo.Find(bg, ArticleFilter{}, model.FeedSortHot, testNow, 0, 20)
	require.NoError(t, err)
	require.Len(t, hot, len(seeds))
	sorted := append([]model.Article(nil), hot...)
	// reverse first so the in-memory sort cannot pass by keeping the input order
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	scoring.SortByHot(sorted, testNow)
	assert.Equal(t, ids(sorted), ids(hot))

	top, err := repo.Find(bg, ArticleFilter{MinVotes: 7}, model.FeedSortTop, testNow, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, ids(scoring.FilterTop(hot, 7)), ids(top))
}

func TestInsertIfAbsentDedupesByUrl(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	source := seedSource(t, db, "wire", "tech")
	a := seedArticle(t, db, source, "tech", testNow)

	dup := model.Article{Id: "other", Title: "again", Url: a.Url, SourceID: source.Id, PublishedAt: testNow}
	inserted, err := repo.InsertIfAbsent(bg, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = repo.Get(bg, "other")
	assert.Equal(t, ErrNotFound, err)
}

func TestSearchRanksMatches(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	source := seedSource(t, db, "wire", "science")
	match := seedArticle(t, db, source, "science", testNow)
	require.NoError(t, db.Model(&model.Article{}).Where("id = ?", match.Id).
		Updates(map[string]interface{}{"title": "Glacier melt accelerates", "summary": "Glacier loss doubled"}).Error)
	seedArticle(t, db, source, "science", testNow)

	hits, total, err := repo.Search(bg, "glacier", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, match.Id, hits[0].Id)
	assert.Greater(t, hits[0].Relevance, 0.0)
}
