package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/utils/apperr"
	"github.com/google/uuid"
)

type CommentPage struct {
	Comments   []model.Comment
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

type CommentService struct {
	comments CommentStore
	articles ArticleStore
}

func NewCommentService(comments CommentStore, articles ArticleStore) *CommentService {
	return &CommentService{comments: comments, articles: articles}
}

func (s *CommentService) Create(ctx context.Context, userID, articleID, body string) (*model.Comment, error) {
	if userID == "" {
		return nil, apperr.NewUnauthorized("authentication required")
	}
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxCommentLength {
		return nil, apperr.NewValidation("body", "body must be between 1 and %d characters", MaxCommentLength)
	}
	comment := &model.Comment{
		Id:        uuid.New().String(),
		ArticleID: articleID,
		UserID:    userID,
		Body:      body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, translate(err, "article "+articleID+" not found", "")
	}
	return comment, nil
}

// List pages through an article's comments, oldest first.
func (s *CommentService) List(ctx context.Context, articleID string, page, pageSize int) (*CommentPage, error) {
	if err := checkPage(page, pageSize); err != nil {
		return nil, err
	}
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return nil, translate(err, "article "+articleID+" not found", "")
	}
	comments, total, err := s.comments.List(ctx, articleID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, internal(err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return &CommentPage{
		Comments:   comments,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Delete removes a comment written by userID. Comments of other users look
// missing.
func (s *CommentService) Delete(ctx context.Context, userID, articleID, commentID string) error {
	if userID == "" {
		return apperr.NewUnauthorized("authentication required")
	}
	err := s.comments.Delete(ctx, userID, articleID, commentID)
	return translate(err, "comment "+commentID+" not found", "")
}
