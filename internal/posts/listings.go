package posts

import (
	"context"

	"github.com/beesaferoot/yatube/internal/paginate"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

type GroupPage struct {
	Group *models.Group
	Page  *paginate.Page[models.Post]
}

type ProfilePage struct {
	Author    *models.User
	Page      *paginate.Page[models.Post]
	Followers int64
	// Following is whether the viewer follows Author.
	Following bool
	// Self is set when viewers look at their own profile.
	Self bool
}

// PostCount is the author's total number of posts.
func (p *ProfilePage) PostCount() int64 {
	return p.Page.Total
}

type DetailPage struct {
	Post            *models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

// Index lists every post, newest first.
func (s *Service) Index(ctx context.Context, page int) (*paginate.Page[models.Post], error) {
	return s.store.ListPosts(ctx, store.PostFilter{}, page)
}

// IndexPageNumber clamps a requested index page into the current range.
func (s *Service) IndexPageNumber(ctx context.Context, page int) (int, error) {
	total, err := s.store.CountPosts(ctx, store.PostFilter{})
	if err != nil {
		return 0, err
	}
	return paginate.New[models.Post](page, total, paginate.PerPage).Number, nil
}

func (s *Service) GroupPosts(ctx context.Context, slug string, page int) (*GroupPage, error) {
	group, err := s.store.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListPosts(ctx, store.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: group, Page: posts}, nil
}

func (s *Service) Profile(ctx context.Context, viewer *models.User, username string, page int) (*ProfilePage, error) {
	author, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListPosts(ctx, store.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	followers, err := s.store.CountFollowers(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	profile := &ProfilePage{Author: author, Page: posts, Followers: followers}
	if viewer != nil {
		profile.Self = viewer.ID == author.ID
		if !profile.Self {
			if profile.Following, err = s.store.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
				return nil, err
			}
		}
	}
	return profile, nil
}

func (s *Service) Detail(ctx context.Context, id uint) (*DetailPage, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountPosts(ctx, store.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &DetailPage{Post: post, Comments: comments, AuthorPostCount: count}, nil
}
