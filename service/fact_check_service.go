package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/factfeed/events"
	"github.com/Luismorlan/factfeed/factcheck"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	timedOutPrefix = "timed out after "
	// persistTimeout bounds the writes closing a job, they must not inherit
	// the poller's expired context.
	persistTimeout = 10 * time.Second
)

// FactCheckConfig is the timing of fact-check jobs.
type FactCheckConfig struct {
	PollInterval time.Duration
	Timeouts     map[model.FactCheckMode]time.Duration
	StaleGrace   time.Duration
}

func DefaultFactCheckConfig() FactCheckConfig {
	return FactCheckConfig{
		PollInterval: 5 * time.Second,
		Timeouts: map[model.FactCheckMode]time.Duration{
			model.FactCheckModeStandard:  time.Minute,
			model.FactCheckModeThorough:  5 * time.Minute,
			model.FactCheckModeSynthesis: 15 * time.Minute,
		},
		StaleGrace: time.Minute,
	}
}

func (c FactCheckConfig) timeout(mode model.FactCheckMode) time.Duration {
	if d, ok := c.Timeouts[mode]; ok && d > 0 {
		return d
	}
	return DefaultFactCheckConfig().Timeouts[mode]
}

// FactCheckService starts fact checks on the remote service and follows each
// job with a background poller until it settles or times out.
type FactCheckService struct {
	articles ArticleStore
	store    FactCheckStore
	client   FactChecker
	events   FactCheckEvents
	cfg      FactCheckConfig
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFactCheckService(articles ArticleStore, store FactCheckStore, client FactChecker, publisher FactCheckEvents, cfg FactCheckConfig) *FactCheckService {
	ctx, cancel := context.WithCancel(context.Background())
	return &FactCheckService{
		articles: articles,
		store:    store,
		client:   client,
		events:   publisher,
		cfg:      cfg,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

type FactCheckJobView struct {
	JobID          string                `json:"job_id"`
	Mode           model.FactCheckMode   `json:"mode"`
	Status         model.FactCheckStatus `json:"status"`
	Phase          string                `json:"phase"`
	Progress       float64               `json:"progress"`
	StartedAt      time.Time             `json:"started_at"`
	LastPolledAt   *time.Time            `json:"last_polled_at"`
	FinishedAt     *time.Time            `json:"finished_at"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	TimeoutSeconds float64               `json:"timeout_seconds"`
	TimedOut       bool                  `json:"timed_out"`
	Error          string                `json:"error,omitempty"`
}

type FactCheckResultView struct {
	Verdict          model.Verdict         `json:"verdict"`
	CredibilityScore int                   `json:"credibility_score"`
	ConfidenceLevel  model.ConfidenceLevel `json:"confidence_level"`
	Summary          string                `json:"summary"`
	Synthesis        string                `json:"synthesis,omitempty"`
	NumSources       int                   `json:"num_sources"`
	SourceConsensus  model.SourceConsensus `json:"source_consensus"`
	EvidenceUrls     []string              `json:"evidence_urls"`
	Evidence         json.RawMessage       `json:"evidence"`
	Mode             model.FactCheckMode   `json:"mode"`
	CheckedAt        time.Time             `json:"checked_at"`
}

type FactCheckStatusView struct {
	ArticleID string                `json:"article_id"`
	Status    model.FactCheckStatus `json:"status"`
	Job       *FactCheckJobView     `json:"job"`
	Result    *FactCheckResultView  `json:"result"`
}

func (s *FactCheckService) jobView(job *model.FactCheckJob) *FactCheckJobView {
	end := s.now()
	if job.FinishedAt != nil {
		end = *job.FinishedAt
	}
	elapsed := end.Sub(job.StartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return &FactCheckJobView{
		JobID:          job.Id,
		Mode:           job.Mode,
		Status:         job.Status,
		Phase:          job.Phase,
		Progress:       job.Progress,
		StartedAt:      job.StartedAt,
		LastPolledAt:   job.LastPolledAt,
		FinishedAt:     job.FinishedAt,
		ElapsedSeconds: math.Round(elapsed*10) / 10,
		TimeoutSeconds: job.Timeout().Seconds(),
		TimedOut:       strings.HasPrefix(job.Error, timedOutPrefix),
		Error:          job.Error,
	}
}

func resultView(r *model.FactCheckRecord) *FactCheckResultView {
	evidence := json.RawMessage(r.Evidence)
	if len(evidence) == 0 {
		evidence = json.RawMessage("[]")
	}
	urls := []string(r.EvidenceUrls)
	if urls == nil {
		urls = []string{}
	}
	return &FactCheckResultView{
		Verdict:          r.Verdict,
		CredibilityScore: r.CredibilityScore,
		ConfidenceLevel:  r.ConfidenceLevel,
		Summary:          r.Summary,
		Synthesis:        r.Synthesis,
		NumSources:       r.NumSources,
		SourceConsensus:  r.SourceConsensus,
		EvidenceUrls:     urls,
		Evidence:         evidence,
		Mode:             r.Mode,
		CheckedAt:        r.CreatedAt,
	}
}

// Start submits articleID for checking. An article with a pending job, or an
// already checked one without force, is a conflict.
func (s *FactCheckService) Start(ctx context.Context, articleID string, mode model.FactCheckMode, force bool) (*FactCheckJobView, error) {
	if !mode.IsValid() {
		return nil, apperr.NewValidation("mode", "unsupported mode %q", string(mode))
	}
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translate(err, "article "+articleID+" not found", "")
	}
	switch {
	case article.FactCheckStatus == model.FactCheckStatusPending:
		return nil, apperr.NewConflict("a fact check is already running for this article")
	case article.FactCheckStatus == model.FactCheckStatusComplete && !force:
		return nil, apperr.NewConflict("article is already fact-checked, pass force=true to run it again")
	}

	timeout := s.cfg.timeout(mode)
	job := &model.FactCheckJob{
		Id:        uuid.New().String(),
		ArticleID: articleID,
		Mode:      mode,
		StartedAt: s.now(),
		TimeoutMs: timeout.Milliseconds(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, translate(err, "article "+articleID+" not found", "a fact check is already running for this article")
	}

	logger := Log.WithFields(logrus.Fields{"article_id": articleID, "job_id": job.Id, "mode": mode})
	content := article.Content
	if content == "" {
		content = article.Summary
	}
	externalID, err := s.client.Submit(ctx, factcheck.SubmitRequest{
		ArticleID: articleID,
		URL:       article.Url,
		Title:     article.Title,
		Content:   content,
		Mode:      string(mode),
	})
	if err != nil {
		logger.WithError(err).Error("fail to submit fact check")
		s.fail(job, "submit failed: "+err.Error(), false)
		return nil, apperr.NewUpstream(err, "fact-check service unavailable")
	}
	if err := s.store.SetExternalID(ctx, job.Id, externalID); err != nil {
		logger.WithError(err).Warn("fail to record external job id")
	}
	job.ExternalJobID = externalID
	logger.WithField("external_job_id", externalID).Info("fact check submitted")

	s.wg.Add(1)
	go s.poll(job, timeout)

	return s.jobView(job), nil
}

// poll follows one job until it settles, the timeout elapses or the service
// shuts down. Jobs abandoned by a shutdown are closed by SweepStale.
func (s *FactCheckService) poll(job *model.FactCheckJob, timeout time.Duration) {
	defer s.wg.Done()
	logger := Log.WithFields(logrus.Fields{"job_id": job.Id, "external_job_id": job.ExternalJobID})

	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.ctx.Err() != nil {
				logger.Info("poller stopped by shutdown, job left pending")
				return
			}
			s.fail(job, timedOutPrefix+timeout.String(), true)
			return
		case <-ticker.C:
		}

		status, err := s.client.Status(ctx, job.ExternalJobID)
		if err != nil {
			if factcheck.IsRetryable(err) {
				logger.WithError(err).Warn("fact check poll failed, retrying")
				continue
			}
			s.fail(job, "upstream error: "+err.Error(), false)
			return
		}
		if err := s.store.RecordProgress(ctx, job.Id, status.Phase, status.Progress, s.now()); err != nil {
			logger.WithError(err).Warn("fail to record fact check progress")
		}
		if !status.IsTerminal() {
			continue
		}
		if status.Succeeded() {
			s.complete(job, status.Result)
			return
		}
		reason := status.Error
		if reason == "" {
			reason = "fact-check service reported failure"
		}
		s.fail(job, "upstream error: "+reason, false)
		return
	}
}

// Record converts a service result into a record. Summary fields are derived
// from the evidence.
func Record(job *model.FactCheckJob, result *factcheck.Result) *model.FactCheckRecord {
	items, err := result.Evidence()
	if err != nil {
		Log.WithError(err).WithField("job_id", job.Id).Warn("evidence is not an array, storing it verbatim")
	}
	summary := factcheck.Summarize(items)

	evidence := datatypes.JSON("[]")
	if len(result.RawEvidence) > 0 && string(result.RawEvidence) != "null" && json.Valid(result.RawEvidence) {
		evidence = datatypes.JSON(result.RawEvidence)
	}
	score := int(math.Round(math.Max(0, math.Min(100, result.CredibilityScore))))

	return &model.FactCheckRecord{
		Id:               uuid.New().String(),
		ArticleID:        job.ArticleID,
		JobID:            job.Id,
		Mode:             job.Mode,
		Verdict:          model.ParseVerdict(result.Verdict),
		CredibilityScore: score,
		ConfidenceLevel:  model.ParseConfidence(result.Confidence),
		Summary:          result.Summary,
		Synthesis:        result.Synthesis,
		Evidence:         evidence,
		EvidenceUrls:     pq.StringArray(summary.URLs),
		NumSources:       summary.NumSources,
		SourceConsensus:  summary.Consensus,
	}
}

func (s *FactCheckService) complete(job *model.FactCheckJob, result *factcheck.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	logger := Log.WithFields(logrus.Fields{"job_id": job.Id, "article_id": job.ArticleID})

	record := Record(job, result)
	at := s.now()
	if err := s.store.Complete(ctx, job.Id, record, at); err != nil {
		if err == repository.ErrNotFound {
			logger.Warn("job closed before its result arrived")
			return
		}
		logger.WithError(err).Error("fail to store fact check result")
		s.fail(job, "store result: "+err.Error(), false)
		return
	}
	logger.WithField("verdict", record.Verdict).Info("fact check completed")
	s.publish(events.FactCheckFinished{
		ArticleID:  job.ArticleID,
		JobID:      job.Id,
		Mode:       string(job.Mode),
		Status:     string(model.FactCheckStatusComplete),
		Verdict:    string(record.Verdict),
		FinishedAt: at,
	})
}

// fail closes job with reason and reports whether this call closed it.
func (s *FactCheckService) fail(job *model.FactCheckJob, reason string, timedOut bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	logger := Log.WithFields(logrus.Fields{"job_id": job.Id, "article_id": job.ArticleID})

	at := s.now()
	if err := s.store.Fail(ctx, job.Id, job.ArticleID, reason, at); err != nil {
		if err != repository.ErrNotFound {
			logger.WithError(err).Error("fail to mark fact check failed")
		}
		return false
	}
	logger.WithField("reason", reason).Warn("fact check failed")
	s.publish(events.FactCheckFinished{
		ArticleID:  job.ArticleID,
		JobID:      job.Id,
		Mode:       string(job.Mode),
		Status:     string(model.FactCheckStatusFailed),
		Error:      reason,
		TimedOut:   timedOut,
		FinishedAt: at,
	})
	return true
}

func (s *FactCheckService) publish(evt events.FactCheckFinished) {
	if s.events == nil {
		return
	}
	if err := s.events.FactCheckFinished(evt); err != nil {
		Log.WithError(err).WithField("job_id", evt.JobID).Warn("fail to publish fact check event")
	}
}

// Status reports the fact-check state of an article with its latest job and
// latest verdict.
func (s *FactCheckService) Status(ctx context.Context, articleID string) (*FactCheckStatusView, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translate(err, "article "+articleID+" not found", "")
	}
	view := &FactCheckStatusView{ArticleID: articleID, Status: article.FactCheckStatus}

	job, err := s.store.LatestJob(ctx, articleID)
	switch {
	case err == nil:
		view.Job = s.jobView(job)
	case err != repository.ErrNotFound:
		return nil, internal(err)
	}
	record, err := s.store.LatestRecord(ctx, articleID)
	switch {
	case err == nil:
		view.Result = resultView(record)
	case err != repository.ErrNotFound:
		return nil, internal(err)
	}
	return view, nil
}

// SweepStale fails jobs still pending past their timeout plus the grace
// period, typically left behind by a restart. It returns how many were
// closed.
func (s *FactCheckService) SweepStale(ctx context.Context) (int, error) {
	jobs, err := s.store.StalePending(ctx, s.now(), s.cfg.StaleGrace)
	if err != nil {
		return 0, err
	}
	closed := 0
	for i := range jobs {
		job := &jobs[i]
		if s.fail(job, fmt.Sprintf("%s%s (abandoned)", timedOutPrefix, job.Timeout()), true) {
			closed++
		}
	}
	if closed > 0 {
		Log.WithField("jobs", closed).Info("swept stale fact check jobs")
	}
	return closed, nil
}

// Shutdown stops every poller and waits for them to return.
func (s *FactCheckService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
