package repository

import (
	"testing"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newJob(articleID string, started time.Time) *model.FactCheckJob {
	return &model.FactCheckJob{
		Id:        uuid.New().String(),
		ArticleID: articleID,
		Mode:      model.FactCheckModeStandard,
		StartedAt: started,
		TimeoutMs: time.Minute.Milliseconds(),
	}
}

func TestFactCheckJobLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactCheckRepository(db)
	source := seedSource(t, db, "wire", "politics")
	article := seedArticle(t, db, source, "politics", testNow)

	job := newJob(article.Id, testNow)
	require.NoError(t, repo.CreateJob(bg, job))
	assert.Equal(t, model.FactCheckStatusPending, reload(t, db, article.Id).FactCheckStatus)

	// second start while pending
	assert.Equal(t, ErrDuplicate, repo.CreateJob(bg, newJob(article.Id, testNow)))

	require.NoError(t, repo.RecordProgress(bg, job.Id, "searching", 0.4, testNow.Add(time.Second)))

	record := &model.FactCheckRecord{
		Id:               uuid.New().String(),
		ArticleID:        article.Id,
		JobID:            job.Id,
		Mode:             job.Mode,
		Verdict:          model.VerdictMostlyFalse,
		CredibilityScore: 35,
		ConfidenceLevel:  model.ConfidenceHigh,
		Evidence:         datatypes.JSON(`[{"url":"https://a.org/x"}]`),
		EvidenceUrls:     []string{"https://a.org/x"},
		NumSources:       1,
		SourceConsensus:  model.ConsensusStrong,
	}
	require.NoError(t, repo.Complete(bg, job.Id, record, testNow.Add(time.Minute)))

	got := reload(t, db, article.Id)
	assert.Equal(t, model.FactCheckStatusComplete, got.FactCheckStatus)
	require.NotNil(t, got.Verdict)
	assert.Equal(t, model.VerdictMostlyFalse, *got.Verdict)
	require.NotNil(t, got.CredibilityScore)
	assert.Equal(t, 35, *got.CredibilityScore)

	latest, err := repo.LatestJob(bg, article.Id)
	require.NoError(t, err)
	assert.Equal(t, model.FactCheckStatusComplete, latest.Status)

	stored, err := repo.LatestRecord(bg, article.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.org/x"}, []string(stored.EvidenceUrls))

	// completing twice is refused
	assert.Equal(t, ErrNotFound, repo.Complete(bg, job.Id, record, testNow))
}

func TestFailedRerunKeepsPreviousVerdict(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactCheckRepository(db)
	source := seedSource(t, db, "wire", "politics")
	article := seedArticle(t, db, source, "politics", testNow, withVerdict(model.VerdictTrue, 90))

	job := newJob(article.Id, testNow)
	require.NoError(t, repo.CreateJob(bg, job))
	require.NoError(t, repo.Fail(bg, job.Id, article.Id, "timed out after 1m0s", testNow.Add(time.Minute)))

	got := reload(t, db, article.Id)
	assert.Equal(t, model.FactCheckStatusComplete, got.FactCheckStatus)
	require.NotNil(t, got.Verdict)
	assert.Equal(t, model.VerdictTrue, *got.Verdict)
}

func TestStalePending(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactCheckRepository(db)
	source := seedSource(t, db, "wire", "politics")
	stale := seedArticle(t, db, source, "politics", testNow)
	fresh := seedArticle(t, db, source, "politics", testNow)

	staleJob := newJob(stale.Id, testNow.Add(-10*time.Minute))
	require.NoError(t, repo.CreateJob(bg, staleJob))
	require.NoError(t, repo.CreateJob(bg, newJob(fresh.Id, testNow.Add(-30*time.Second))))

	jobs, err := repo.StalePending(bg, testNow, time.Minute)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, staleJob.Id, jobs[0].Id)
}
