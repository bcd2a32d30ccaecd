// Package testutil builds migrated in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/beesaferoot/yatube/internal/database"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/internal/util"
	"github.com/beesaferoot/yatube/migration"
	"github.com/beesaferoot/yatube/models"
)

// Password is the password of every user made by Env.User.
const Password = "correct-horse-battery"

var (
	hashOnce sync.Once
	hash     string
)

func passwordHash(t testing.TB) string {
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(b)
	})
	return hash
}

// NewDB opens a fresh in-memory SQLite database with the schema applied.
func NewDB(t testing.TB) *gorm.DB {
	db, err := database.Open("sqlite::memory:", false)
	require.NoError(t, err)
	_, err = migration.NewMigrator(db).Up()
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type Env struct {
	DB    *gorm.DB
	Store *store.Store
	Clock *util.StubClock
	seq   int
}

func NewEnv(t testing.TB) *Env {
	db := NewDB(t)
	clock := util.NewStubClock()
	clock.SetNow(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s := store.New(db)
	s.Clock = clock
	return &Env{DB: db, Store: s, Clock: clock}
}

func (e *Env) next() int {
	e.seq++
	return e.seq
}

// User creates a user; an empty username gets a generated one.
func (e *Env) User(t testing.TB, username string) *models.User {
	if username == "" {
		username = fmt.Sprintf("%s%d", gofakeit.Username(), e.next())
	}
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash(t),
	}
	require.NoError(t, e.Store.CreateUser(context.Background(), user))
	return user
}

func (e *Env) Group(t testing.TB, slug string) *models.Group {
	if slug == "" {
		slug = fmt.Sprintf("group-%d", e.next())
	}
	group := &models.Group{
		Title:       gofakeit.BookTitle(),
		Slug:        slug,
		Description: gofakeit.Sentence(8),
	}
	require.NoError(t, e.Store.CreateGroup(context.Background(), group))
	return group
}

// Post creates a post one minute after the previous one, so listings have
// a strict order.
func (e *Env) Post(t testing.TB, author *models.User, text string, group *models.Group) *models.Post {
	if text == "" {
		text = gofakeit.Sentence(10)
	}
	e.Clock.Advance(time.Minute)
	post := &models.Post{
		Text:     text,
		AuthorID: author.ID,
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, e.Store.CreatePost(context.Background(), post))
	return post
}

func (e *Env) Comment(t testing.TB, post *models.Post, author *models.User, text string) *models.Comment {
	e.Clock.Advance(time.Second)
	comment := &models.Comment{
		Text:     text,
		PostID:   post.ID,
		AuthorID: author.ID,
	}
	require.NoError(t, e.Store.CreateComment(context.Background(), comment))
	return comment
}
