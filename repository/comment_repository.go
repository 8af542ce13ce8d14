package repository

import (
	"context"

	"github.com/Luismorlan/factfeed/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func bumpComments(tx *gorm.DB, articleID string, delta int) error {
	return tx.Model(&model.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("comment_count", gorm.Expr("GREATEST(comment_count + ?, 0)", delta)).Error
}

// Create inserts the comment and increments the article's comment_count in
// the same transaction.
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, comment.UserID); err != nil {
			return err
		}
		if err := lockArticle(tx, comment.ArticleID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return bumpComments(tx, comment.ArticleID, 1)
	})
	if err == ErrNotFound {
		return err
	}
	return errors.Wrap(err, "create comment")
}

// List returns live comments of an article, oldest first.
func (r *CommentRepository) List(ctx context.Context, articleID string, offset, limit int) ([]model.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("article_id = ?", articleID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count comments")
	}
	comments := []model.Comment{}
	if offset >= int(total) {
		return comments, total, nil
	}
	err := q.Order("created_at ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list comments")
	}
	return comments, total, nil
}

// Delete soft deletes a comment owned by userID. A comment that does not
// exist, belongs to another article or to another user is ErrNotFound.
func (r *CommentRepository) Delete(ctx context.Context, userID, articleID, commentID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND article_id = ? AND user_id = ?", commentID, articleID, userID).
			Delete(&model.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return bumpComments(tx, articleID, -1)
	})
	if err == ErrNotFound {
		return err
	}
	return errors.Wrap(err, "delete comment")
}
