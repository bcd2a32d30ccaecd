package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/beesaferoot/yatube/models"
)

// Follow adds the edge user -> author. It reports whether a new edge was
// created; an existing edge is left alone.
func (s *Store) Follow(ctx context.Context, userID, authorID uint) (bool, error) {
	follow := models.Follow{
		UserID:    userID,
		AuthorID:  authorID,
		CreatedAt: s.Clock.NowUtc(),
	}
	res := s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(&follow)
	if res.Error != nil {
		return false, translate(res.Error, fmt.Sprintf("following %d -> %d failed", userID, authorID))
	}
	return res.RowsAffected > 0, nil
}

// Unfollow removes the edge if present. It reports whether one was removed.
func (s *Store) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	res := s.conn(ctx).Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return false, translate(res.Error, fmt.Sprintf("unfollowing %d -> %d failed", userID, authorID))
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "checking follow failed")
	}
	return count > 0, nil
}

// FollowedAuthorIDs lists who a user follows, in the order they were followed.
func (s *Store) FollowedAuthorIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.conn(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Order("id").
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, translate(err, "listing followed authors failed")
	}
	return ids, nil
}

func (s *Store) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	if err != nil {
		return 0, translate(err, "counting followers failed")
	}
	return count, nil
}
