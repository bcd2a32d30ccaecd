// Package seed fills a database with fake users, groups, posts, comments and
// follows for local development.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

type Options struct {
	Users           int
	Groups          int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	// Password is shared by every generated account.
	Password string
	// Seed makes the generated data reproducible; zero picks a random seed.
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		Users:           10,
		Groups:          3,
		PostsPerUser:    5,
		CommentsPerPost: 2,
		FollowsPerUser:  3,
		Password:        "yatube-demo",
	}
}

type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

func (r Result) String() string {
	return fmt.Sprintf("%d users, %d groups, %d posts, %d comments, %d follows",
		r.Users, r.Groups, r.Posts, r.Comments, r.Follows)
}

// Run writes everything in one transaction.
func Run(ctx context.Context, s *store.Store, opts Options) (Result, error) {
	var res Result
	if opts.Users < 1 {
		return res, errors.New("seed needs at least one user")
	}

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(uint64(opts.Seed))
	rnd := rand.New(rand.NewSource(opts.Seed))

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return res, errors.Wrap(err, "hashing password failed")
	}

	err = s.WithTx(ctx, "seed", func(tx *store.Store) error {
		res = Result{}

		users := make([]*models.User, 0, opts.Users)
		for i := 0; i < opts.Users; i++ {
			user := &models.User{
				Username:     fmt.Sprintf("%s%d", strings.ToLower(faker.Username()), i),
				FirstName:    faker.FirstName(),
				LastName:     faker.LastName(),
				PasswordHash: string(hash),
			}
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			users = append(users, user)
		}
		res.Users = len(users)

		groups := make([]*models.Group, 0, opts.Groups)
		for i := 0; i < opts.Groups; i++ {
			title := faker.BookGenre()
			group := &models.Group{
				Title:       title,
				Slug:        fmt.Sprintf("%s-%d", slugify(title), i),
				Description: faker.Sentence(12),
			}
			if err := tx.CreateGroup(ctx, group); err != nil {
				return err
			}
			groups = append(groups, group)
		}
		res.Groups = len(groups)

		for _, author := range users {
			for i := 0; i < opts.PostsPerUser; i++ {
				post := &models.Post{
					Text:      faker.Paragraph(1, 3, 12, " "),
					AuthorID:  author.ID,
					CreatedAt: faker.PastDate().UTC(),
				}
				if len(groups) > 0 && rnd.Intn(3) > 0 {
					post.GroupID = &groups[rnd.Intn(len(groups))].ID
				}
				if err := tx.CreatePost(ctx, post); err != nil {
					return err
				}
				res.Posts++

				for j := 0; j < opts.CommentsPerPost; j++ {
					comment := &models.Comment{
						Text:      faker.Sentence(8),
						PostID:    post.ID,
						AuthorID:  users[rnd.Intn(len(users))].ID,
						CreatedAt: post.CreatedAt.Add(time.Duration(rnd.Intn(72)+1) * time.Hour),
					}
					if err := tx.CreateComment(ctx, comment); err != nil {
						return err
					}
					res.Comments++
				}
			}
		}

		for _, user := range users {
			followed := 0
			for _, i := range rnd.Perm(len(users)) {
				if followed >= opts.FollowsPerUser {
					break
				}
				if users[i].ID == user.ID {
					continue
				}
				if _, err := tx.Follow(ctx, user.ID, users[i].ID); err != nil {
					return err
				}
				followed++
			}
			res.Follows += followed
		}
		return nil
	})
	return res, err
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "group"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}
