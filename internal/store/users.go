package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/yatube/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.Clock.NowUtc()
	}
	err := s.conn(ctx).Omit(clause.Associations).Create(user).Error
	return translate(err, fmt.Sprintf("creating user %q failed", user.Username))
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).First(&user, id).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("getting user %d failed", id))
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("getting user %q failed", username))
	}
	return &user, nil
}

// DeleteUser removes a user along with everything that belongs to them:
// their posts (and the comments on those), their comments, follow edges in
// both directions and sessions.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("post_id IN (?) OR author_id = ?", ownPosts, id).Delete(&models.Comment{}).Error; err != nil {
			return translate(err, "deleting comments failed")
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return translate(err, "deleting posts failed")
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return translate(err, "deleting follows failed")
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return translate(err, "deleting sessions failed")
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return translate(res.Error, fmt.Sprintf("deleting user %d failed", id))
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, fmt.Sprintf("deleting user %d failed", id))
		}
		return nil
	})
}
