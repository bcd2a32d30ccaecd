package models

// Group represents a named topic that posts can be filed under
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:50;uniqueIndex;not null"`
	Description string `gorm:"type:text;not null"`
}

func (g Group) String() string {
	return truncate(g.Title, 15)
}
