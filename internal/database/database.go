package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open connects to the database named by url. Two forms are understood:
// postgres://... (or postgresql://...) and sqlite:<path>.
func Open(url string, debug bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(url)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if IsSQLite(url) {
		// SQLite allows one writer; a single connection also keeps
		// :memory: databases alive across queries.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func IsSQLite(url string) bool {
	return strings.HasPrefix(url, sqlitePrefix)
}

func IsPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func dialectorFor(url string) (gorm.Dialector, error) {
	switch {
	case IsPostgres(url):
		return postgres.Open(url), nil
	case IsSQLite(url):
		path := strings.TrimPrefix(url, sqlitePrefix)
		if path == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + "_foreign_keys=on"), nil
	}
	return nil, fmt.Errorf("unsupported DATABASE_URL %q: expected postgres:// or sqlite:", url)
}
