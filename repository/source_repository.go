package repository

import (
	"context"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Get loads a source by id.
func (r *SourceRepository) Get(ctx context.Context, id string) (*model.Source, error) {
	var source model.Source
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&source).Error
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get source "+id)
	}
	return &source, nil
}

// Upsert creates a source or refreshes the feed settings of the one with the
// same name.
func (r *SourceRepository) Upsert(ctx context.Context, source *model.Source) error {
	if source.Id == "" {
		source.Id = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"domain", "feed_url", "category", "enabled"}),
	}).Create(source).Error
	return errors.Wrap(err, "upsert source "+source.Name)
}

// ListFeedSources returns enabled sources that have a feed to poll.
func (r *SourceRepository) ListFeedSources(ctx context.Context) ([]model.Source, error) {
	sources := []model.Source{}
	err := r.db.WithContext(ctx).
		Where("enabled = ? AND feed_url <> ''", true).
		Order("name ASC").
		Find(&sources).Error
	return sources, errors.Wrap(err, "list feed sources")
}

// RecordFetchSuccess stores the validators of the last response and clears the
// last error.
func (r *SourceRepository) RecordFetchSuccess(ctx context.Context, id, etag, lastModified string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Source{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"etag":            etag,
			"last_modified":   lastModified,
			"last_fetched_at": at,
			"last_error":      "",
		}).Error
	return errors.Wrap(err, "record fetch success")
}

// RecordFetchError keeps the error of the last poll for operators.
func (r *SourceRepository) RecordFetchError(ctx context.Context, id string, fetchErr error) error {
	err := r.db.WithContext(ctx).Model(&model.Source{}).Where("id = ?", id).
		UpdateColumn("last_error", fetchErr.Error()).Error
	return errors.Wrap(err, "record fetch error")
}
