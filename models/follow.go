package models

import "time"

// Follow is a directed edge: User wants Author's posts in their feed.
// The (user_id, author_id) pair is unique.
type Follow struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_follow_user_author"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null"`
}

func (f Follow) String() string {
	return f.User.Username + " ; " + f.Author.Username
}
