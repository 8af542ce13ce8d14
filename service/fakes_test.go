package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/factfeed/cache"
	"github.com/Luismorlan/factfeed/events"
	"github.com/Luismorlan/factfeed/factcheck"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/scoring"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeArticles struct {
	mu       sync.Mutex
	articles map[string]*model.Article
}

func newFakeArticles(articles ...model.Article) *fakeArticles {
	f := &fakeArticles{articles: map[string]*model.Article{}}
	for i := range articles {
		a := articles[i]
		f.articles[a.Id] = &a
	}
	return f
}

func (f *fakeArticles) matching(filter repository.ArticleFilter) []model.Article {
	out := []model.Article{}
	for _, a := range f.articles {
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.Window.Bounded() && a.PublishedAt.Before(filter.Window.From) {
			continue
		}
		if !filter.Window.To.IsZero() && !a.PublishedAt.Before(filter.Window.To) {
			continue
		}
		if a.VoteCount < filter.MinVotes {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func (f *fakeArticles) Count(_ context.Context, filter repository.ArticleFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(filter))), nil
}

func (f *fakeArticles) Find(_ context.Context, filter repository.ArticleFilter, sortBy model.FeedSort, now time.Time, offset, limit int) ([]model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	articles := f.matching(filter)
	switch sortBy {
	case model.FeedSortHot:
		scoring.SortByHot(articles, now)
	case model.FeedSortTop:
		articles = scoring.FilterTop(articles, 0)
	default:
		sort.Slice(articles, func(i, j int) bool {
			a, b := articles[i], articles[j]
			return scoring.Less(0, 0, a.PublishedAt, b.PublishedAt, a.Id, b.Id)
		})
	}
	if offset >= len(articles) {
		return []model.Article{}, nil
	}
	end := offset + limit
	if end > len(articles) {
		end = len(articles)
	}
	return articles[offset:end], nil
}

func (f *fakeArticles) FindTrending(_ context.Context, filter repository.ArticleFilter, now time.Time, limit int) ([]model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	articles := f.matching(filter)
	score := func(a model.Article) float64 {
		return scoring.TrendingScore(a.VoteScore, a.CommentCount, scoring.AgeHours(a.PublishedAt, now))
	}
	sort.Slice(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		return scoring.Less(score(a), score(b), a.PublishedAt, b.PublishedAt, a.Id, b.Id)
	})
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (f *fakeArticles) Get(_ context.Context, id string) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) Search(_ context.Context, query string, offset, limit int) ([]repository.SearchHit, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hits := []repository.SearchHit{}
	for _, a := range f.articles {
		if strings.Contains(strings.ToLower(a.Title), strings.ToLower(query)) {
			hits = append(hits, repository.SearchHit{Article: *a, Relevance: 0.5})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Id < hits[j].Id })
	total := int64(len(hits))
	if offset >= len(hits) {
		return []repository.SearchHit{}, total, nil
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end], total, nil
}

func (f *fakeArticles) setStatus(id string, status model.FactCheckStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles[id].FactCheckStatus = status
}

// fakeVotes mirrors the counter rules of the vote repository.
type fakeVotes struct {
	mu       sync.Mutex
	articles *fakeArticles
	votes    map[string]int
}

func newFakeVotes(articles *fakeArticles) *fakeVotes {
	return &fakeVotes{articles: articles, votes: map[string]int{}}
}

func (f *fakeVotes) tally(articleID string, userVote *int) repository.VoteTally {
	a := f.articles.articles[articleID]
	return repository.VoteTally{ArticleID: articleID, VoteScore: a.VoteScore, VoteCount: a.VoteCount, UserVote: userVote}
}

func (f *fakeVotes) Cast(_ context.Context, userID, articleID string, direction int) (repository.VoteTally, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles.articles[articleID]
	if !ok {
		return repository.VoteTally{}, repository.ErrNotFound
	}
	key := userID + "/" + articleID
	prev, voted := f.votes[key]
	switch {
	case !voted:
		a.VoteScore += direction
		a.VoteCount++
	case prev == direction:
		return repository.VoteTally{}, repository.ErrDuplicate
	default:
		a.VoteScore += 2 * direction
	}
	f.votes[key] = direction
	return f.tally(articleID, &direction), nil
}

func (f *fakeVotes) Remove(_ context.Context, userID, articleID string) (repository.VoteTally, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + articleID
	prev, voted := f.votes[key]
	if !voted {
		return repository.VoteTally{}, repository.ErrNotFound
	}
	a := f.articles.articles[articleID]
	a.VoteScore -= prev
	a.VoteCount--
	delete(f.votes, key)
	return f.tally(articleID, nil), nil
}

func (f *fakeVotes) DirectionsFor(_ context.Context, userID string, articleIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, id := range articleIDs {
		if d, ok := f.votes[userID+"/"+id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type fakeComments struct {
	mu       sync.Mutex
	articles *fakeArticles
	comments []model.Comment
}

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles.articles[c.ArticleID]
	if !ok {
		return repository.ErrNotFound
	}
	c.CreatedAt = testNow.Add(time.Duration(len(f.comments)) * time.Second)
	f.comments = append(f.comments, *c)
	a.CommentCount++
	return nil
}

func (f *fakeComments) List(_ context.Context, articleID string, offset, limit int) ([]model.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Comment
	for _, c := range f.comments {
		if c.ArticleID == articleID {
			all = append(all, c)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeComments) Delete(_ context.Context, userID, articleID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.comments {
		if c.Id == commentID && c.ArticleID == articleID && c.UserID == userID {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			f.articles.articles[articleID].CommentCount--
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSources map[string]model.Source

func (f fakeSources) Get(_ context.Context, id string) (*model.Source, error) {
	s, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

// fakeAnalytics serves canned rows. Queries whose window ends before testNow
// are answered from the previous* fields.
type fakeAnalytics struct {
	mu sync.Mutex

	categories      []repository.GroupStats
	sources         []repository.GroupStats
	previousSources []repository.GroupStats
	buckets         []repository.Bucket
	totals          repository.Totals
	currentMonth    repository.PeriodTotals
	previousMonth   repository.PeriodTotals
	factCheckedPre  int64

	calls      int
	minArgs    []int
	bucketArgs []string
}

func (f *fakeAnalytics) CategoryStatistics(_ context.Context, _ repository.Window, minArticles int) ([]repository.GroupStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.minArgs = append(f.minArgs, minArticles)
	out := []repository.GroupStats{}
	for _, row := range f.categories {
		if row.ArticlesCount >= int64(minArticles) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAnalytics) SourceStatistics(_ context.Context, w repository.Window, minArticles int, category string) ([]repository.GroupStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	rows := f.sources
	if w.To.Before(testNow) {
		rows = f.previousSources
	}
	out := []repository.GroupStats{}
	for _, row := range rows {
		if row.ArticlesCount < int64(minArticles) || (category != "" && row.Category != category) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeAnalytics) HistoricalBuckets(_ context.Context, sourceID, granularity string, from time.Time) ([]repository.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.bucketArgs = append(f.bucketArgs, granularity)
	out := []repository.Bucket{}
	for _, b := range f.buckets {
		if from.IsZero() || !b.Start.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAnalytics) Totals(context.Context) (repository.Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.totals, nil
}

func (f *fakeAnalytics) PeriodTotals(_ context.Context, w repository.Window) (repository.PeriodTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if w.To.Before(testNow) {
		return f.previousMonth, nil
	}
	return f.currentMonth, nil
}

func (f *fakeAnalytics) FactCheckedBefore(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.factCheckedPre, nil
}

// fakeCache stores values as the response structs themselves.
type fakeCache struct {
	entries map[string]interface{}
}

func (c *fakeCache) key(name string, params interface{}) string {
	k, _ := cache.Key("0", name, params)
	return k
}

func (c *fakeCache) Get(_ context.Context, name string, params interface{}, dest interface{}) (bool, error) {
	v, ok := c.entries[c.key(name, params)]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *CategoryBreakdown:
		*d = v.(CategoryBreakdown)
	case *Stats:
		*d = v.(Stats)
	default:
		return false, nil
	}
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, name string, params interface{}, value interface{}) error {
	switch v := value.(type) {
	case *CategoryBreakdown:
		c.entries[c.key(name, params)] = *v
	case *Stats:
		c.entries[c.key(name, params)] = *v
	}
	return nil
}

type fakeFactChecks struct {
	mu       sync.Mutex
	articles *fakeArticles
	jobs     map[string]*model.FactCheckJob
	records  []model.FactCheckRecord
	stale    []model.FactCheckJob
	progress []float64
}

func newFakeFactChecks(articles *fakeArticles) *fakeFactChecks {
	return &fakeFactChecks{articles: articles, jobs: map[string]*model.FactCheckJob{}}
}

func (f *fakeFactChecks) CreateJob(_ context.Context, job *model.FactCheckJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.articles.Get(context.Background(), job.ArticleID)
	if err != nil {
		return err
	}
	if a.FactCheckStatus == model.FactCheckStatusPending {
		return repository.ErrDuplicate
	}
	f.articles.setStatus(job.ArticleID, model.FactCheckStatusPending)
	job.Status = model.FactCheckStatusPending
	cp := *job
	f.jobs[job.Id] = &cp
	return nil
}

func (f *fakeFactChecks) SetExternalID(_ context.Context, jobID, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID].ExternalJobID = externalID
	return nil
}

func (f *fakeFactChecks) RecordProgress(_ context.Context, jobID, phase string, progress float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	job.Phase, job.Progress, job.LastPolledAt = phase, progress, &at
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeFactChecks) Complete(_ context.Context, jobID string, record *model.FactCheckRecord, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.Status != model.FactCheckStatusPending {
		return repository.ErrNotFound
	}
	job.Status, job.FinishedAt = model.FactCheckStatusComplete, &at
	record.CreatedAt = at
	f.records = append(f.records, *record)
	f.articles.setStatus(job.ArticleID, model.FactCheckStatusComplete)
	return nil
}

func (f *fakeFactChecks) Fail(_ context.Context, jobID, articleID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		for i := range f.stale {
			if f.stale[i].Id == jobID {
				job, ok = &f.stale[i], true
			}
		}
	}
	if !ok || job.Status != model.FactCheckStatusPending {
		return repository.ErrNotFound
	}
	job.Status, job.Error, job.FinishedAt = model.FactCheckStatusFailed, reason, &at
	f.articles.setStatus(articleID, model.FactCheckStatusFailed)
	return nil
}

func (f *fakeFactChecks) LatestJob(_ context.Context, articleID string) (*model.FactCheckJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.FactCheckJob
	for _, job := range f.jobs {
		if job.ArticleID == articleID && (latest == nil || job.StartedAt.After(latest.StartedAt)) {
			latest = job
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeFactChecks) LatestRecord(_ context.Context, articleID string) (*model.FactCheckRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].ArticleID == articleID {
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFactChecks) StalePending(context.Context, time.Time, time.Duration) ([]model.FactCheckJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.FactCheckJob{}
	for _, job := range f.stale {
		if job.Status == model.FactCheckStatusPending {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeFactChecks) job(id string) model.FactCheckJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[id]
}

// fakeChecker replays statuses, the last one repeats forever.
type fakeChecker struct {
	mu        sync.Mutex
	submitErr error
	statuses  []factcheck.JobStatus
	statusErr error
	submitted []factcheck.SubmitRequest
	polls     int
}

func (c *fakeChecker) Submit(_ context.Context, req factcheck.SubmitRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return "", c.submitErr
	}
	c.submitted = append(c.submitted, req)
	return "ext-" + req.ArticleID, nil
}

func (c *fakeChecker) Status(ctx context.Context, _ string) (factcheck.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return factcheck.JobStatus{}, err
	}
	if c.statusErr != nil {
		return factcheck.JobStatus{}, c.statusErr
	}
	i := c.polls
	if i >= len(c.statuses) {
		i = len(c.statuses) - 1
	}
	c.polls++
	return c.statuses[i], nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.FactCheckFinished
}

func (e *fakeEvents) FactCheckFinished(evt events.FactCheckFinished) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return nil
}

func (e *fakeEvents) all() []events.FactCheckFinished {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]events.FactCheckFinished(nil), e.events...)
}
