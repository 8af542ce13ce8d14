package repository

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type FactCheckRepository struct {
	db *gorm.DB
}

func NewFactCheckRepository(db *gorm.DB) *FactCheckRepository {
	return &FactCheckRepository{db: db}
}

// CreateJob stores a PENDING job and flips the article to PENDING. It returns
// ErrDuplicate when the article already has a pending job, the conditional
// update makes two concurrent starts race safely.
func (r *FactCheckRepository) CreateJob(ctx context.Context, job *model.FactCheckJob) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Article{}).
			Where("id = ? AND fact_check_status <> ?", job.ArticleID, model.FactCheckStatusPending).
			UpdateColumn("fact_check_status", model.FactCheckStatusPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicate
		}
		job.Status = model.FactCheckStatusPending
		return tx.Create(job).Error
	})
	if err == ErrDuplicate {
		return err
	}
	return errors.Wrap(err, "create fact check job")
}

// SetExternalID records the id the fact-check service assigned to the job.
func (r *FactCheckRepository) SetExternalID(ctx context.Context, jobID, externalID string) error {
	err := r.db.WithContext(ctx).Model(&model.FactCheckJob{}).Where("id = ?", jobID).
		UpdateColumn("external_job_id", externalID).Error
	return errors.Wrap(err, "set external job id")
}

// RecordProgress keeps the last phase reported by the service.
func (r *FactCheckRepository) RecordProgress(ctx context.Context, jobID, phase string, progress float64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.FactCheckJob{}).
		Where("id = ? AND status = ?", jobID, model.FactCheckStatusPending).
		UpdateColumns(map[string]interface{}{
			"phase":          phase,
			"progress":       progress,
			"last_polled_at": at,
		}).Error
	return errors.Wrap(err, "record fact check progress")
}

// Complete persists the record, mirrors it onto the article and closes the
// job, all in one transaction.
func (r *FactCheckRepository) Complete(ctx context.Context, jobID string, record *model.FactCheckRecord, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FactCheckJob{}).
			Where("id = ? AND status = ?", jobID, model.FactCheckStatusPending).
			UpdateColumns(map[string]interface{}{
				"status":         model.FactCheckStatusComplete,
				"phase":          "complete",
				"progress":       1.0,
				"finished_at":    at,
				"last_polled_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// swept or finished by someone else
			return ErrNotFound
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Model(&model.Article{}).Where("id = ?", record.ArticleID).
			UpdateColumns(map[string]interface{}{
				"fact_check_status":  model.FactCheckStatusComplete,
				"credibility_score":  record.CredibilityScore,
				"verdict":            record.Verdict,
				"confidence_level":   nullableConfidence(record.ConfidenceLevel),
				"num_sources":        record.NumSources,
				"source_consensus":   record.SourceConsensus,
				"fact_check_summary": record.Summary,
				"fact_checked_at":    at,
			}).Error
	})
	if err == ErrNotFound {
		return err
	}
	return errors.Wrap(err, "complete fact check job")
}

func nullableConfidence(c model.ConfidenceLevel) interface{} {
	if c == "" {
		return nil
	}
	return c
}

// Fail closes a pending job with reason. The article goes back to COMPLETE
// when it still carries an earlier verdict (a forced re-run failed), FAILED
// otherwise.
func (r *FactCheckRepository) Fail(ctx context.Context, jobID, articleID, reason string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FactCheckJob{}).
			Where("id = ? AND status = ?", jobID, model.FactCheckStatusPending).
			UpdateColumns(map[string]interface{}{
				"status":      model.FactCheckStatusFailed,
				"error":       reason,
				"finished_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&model.Article{}).
			Where("id = ? AND fact_check_status = ?", articleID, model.FactCheckStatusPending).
			UpdateColumn("fact_check_status", gorm.Expr(
				"CASE WHEN fact_checked_at IS NULL THEN ? ELSE ? END",
				model.FactCheckStatusFailed, model.FactCheckStatusComplete,
			)).Error
	})
	if err == ErrNotFound {
		return err
	}
	return errors.Wrap(err, "fail fact check job")
}

// LatestJob returns the most recently started job of an article.
func (r *FactCheckRepository) LatestJob(ctx context.Context, articleID string) (*model.FactCheckJob, error) {
	var job model.FactCheckJob
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).
		Order("started_at DESC").First(&job).Error
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "latest fact check job")
	}
	return &job, nil
}

// LatestRecord returns the most recent verdict of an article.
func (r *FactCheckRepository) LatestRecord(ctx context.Context, articleID string) (*model.FactCheckRecord, error) {
	var record model.FactCheckRecord
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).
		Order("created_at DESC").First(&record).Error
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "latest fact check record")
	}
	return &record, nil
}

// StalePending lists PENDING jobs whose timeout plus grace elapsed before now.
// They are left behind when the process running their poller dies.
func (r *FactCheckRepository) StalePending(ctx context.Context, now time.Time, grace time.Duration) ([]model.FactCheckJob, error) {
	jobs := []model.FactCheckJob{}
	err := r.db.WithContext(ctx).
		Where("status = ?", model.FactCheckStatusPending).
		Where("started_at + (timeout_ms + ?) * INTERVAL '1 millisecond' < ?", grace.Milliseconds(), now).
		Find(&jobs).Error
	return jobs, errors.Wrap(err, "list stale fact check jobs")
}
