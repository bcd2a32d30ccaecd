package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/beesaferoot/yatube/models"
)

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	err := s.conn(ctx).Create(group).Error
	return translate(err, fmt.Sprintf("creating group %q failed", group.Slug))
}

func (s *Store) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.conn(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("getting group %d failed", id))
	}
	return &group, nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.conn(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("getting group %q failed", slug))
	}
	return &group, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.conn(ctx).Order("title").Order("id").Find(&groups).Error; err != nil {
		return nil, translate(err, "listing groups failed")
	}
	return groups, nil
}

// DeleteGroup removes a group. Its posts stay and lose their group.
func (s *Store) DeleteGroup(ctx context.Context, slug string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Where("slug = ?", slug).First(&group).Error; err != nil {
			return translate(err, fmt.Sprintf("getting group %q failed", slug))
		}
		err := tx.Model(&models.Post{}).Where("group_id = ?", group.ID).Update("group_id", nil).Error
		if err != nil {
			return translate(err, "detaching posts failed")
		}
		if err := tx.Delete(&group).Error; err != nil {
			return translate(err, fmt.Sprintf("deleting group %q failed", slug))
		}
		return nil
	})
}
