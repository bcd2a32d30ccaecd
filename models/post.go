package models

import (
	"fmt"
	"time"
)

// Post represents a unit of authored content, optionally filed under a group
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
	Image     string    `gorm:"size:255"`
	AuthorID  uint      `gorm:"index;not null"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `gorm:"index"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

func (p Post) String() string {
	group := "<nil>"
	if p.Group != nil {
		group = p.Group.String()
	}
	return fmt.Sprintf("%s ; %s ; %s", truncate(p.Text, 15), p.Author.Username, group)
}

// HasImage reports whether an image is attached.
func (p Post) HasImage() bool {
	return p.Image != ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
