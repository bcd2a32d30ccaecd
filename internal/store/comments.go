package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/beesaferoot/yatube/models"
)

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.Clock.NowUtc()
	}
	err := s.conn(ctx).Omit(clause.Associations).Create(comment).Error
	return translate(err, fmt.Sprintf("creating comment on post %d failed", comment.PostID))
}

// ListComments returns the comments of a post in the order they were left.
func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.conn(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("listing comments of post %d failed", postID))
	}
	return comments, nil
}
