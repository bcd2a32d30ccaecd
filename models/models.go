// Package models holds the GORM models of the blog.
package models

// All lists the models in dependency order, referenced tables first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
		&Session{},
	}
}
