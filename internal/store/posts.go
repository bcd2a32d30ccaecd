package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/yatube/internal/paginate"
	"github.com/beesaferoot/yatube/models"
)

// PostFilter narrows a post listing. Zero fields are ignored; FollowerID
// keeps only posts by authors that user follows.
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.Clock.NowUtc()
	}
	err := s.conn(ctx).Omit(clause.Associations).Create(post).Error
	return translate(err, "creating post failed")
}

// UpdatePost saves the mutable fields of a post: text, group and image.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.conn(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"text":     post.Text,
		"group_id": post.GroupID,
		"image":    post.Image,
	})
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("updating post %d failed", post.ID))
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, fmt.Sprintf("updating post %d failed", post.ID))
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.conn(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("getting post %d failed", id))
	}
	return &post, nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translate(err, "deleting comments failed")
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return translate(res.Error, fmt.Sprintf("deleting post %d failed", id))
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, fmt.Sprintf("deleting post %d failed", id))
		}
		return nil
	})
}

// ListPosts returns one page of posts matching f, newest first.
func (s *Store) ListPosts(ctx context.Context, f PostFilter, number int) (*paginate.Page[models.Post], error) {
	q := s.filter(s.conn(ctx).Model(&models.Post{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, translate(err, "counting posts failed")
	}

	page := paginate.New[models.Post](number, total, paginate.PerPage)
	err := q.Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&page.Items).Error
	if err != nil {
		return nil, translate(err, "listing posts failed")
	}
	return page, nil
}

func (s *Store) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var total int64
	err := s.filter(s.conn(ctx).Model(&models.Post{}), f).Count(&total).Error
	if err != nil {
		return 0, translate(err, "counting posts failed")
	}
	return total, nil
}

func (s *Store) filter(q *gorm.DB, f PostFilter) *gorm.DB {
	if f.GroupID != 0 {
		q = q.Where("posts.group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		followed := s.db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", f.FollowerID)
		q = q.Where("posts.author_id IN (?)", followed)
	}
	return q
}
