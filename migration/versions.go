package migration

import (
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/yatube/models"
)

// Schema versions of the blog. Tables are created from the models so the
// same definitions work on SQLite and PostgreSQL.
func init() {
	RegisterMigration(&Migration{
		Version:   "20240301000001",
		Name:      "create_users_and_groups",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return db.Migrator().CreateTable(&models.User{}, &models.Group{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.Group{}, &models.User{})
		},
	})

	RegisterMigration(&Migration{
		Version:   "20240301000002",
		Name:      "create_posts_and_comments",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 2, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return db.Migrator().CreateTable(&models.Post{}, &models.Comment{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.Comment{}, &models.Post{})
		},
	})

	RegisterMigration(&Migration{
		Version:   "20240301000003",
		Name:      "create_follows",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 3, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return db.Migrator().CreateTable(&models.Follow{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.Follow{})
		},
	})

	RegisterMigration(&Migration{
		Version:   "20240315000001",
		Name:      "create_sessions",
		CreatedAt: time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return db.Migrator().CreateTable(&models.Session{})
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.Session{})
		},
	})
}
