package posts

import (
	"context"

	"github.com/beesaferoot/yatube/internal/paginate"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

// Follow makes user follow the author with the given username. Following
// twice, or following yourself, changes nothing.
func (s *Service) Follow(ctx context.Context, user *models.User, username string) error {
	if user == nil {
		return ErrUnauthenticated
	}
	author, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if author.ID == user.ID {
		return nil
	}
	return s.store.WithTx(ctx, "follow", func(tx *store.Store) error {
		_, err := tx.Follow(ctx, user.ID, author.ID)
		return err
	})
}

// Unfollow removes the edge; a missing edge is not an error.
func (s *Service) Unfollow(ctx context.Context, user *models.User, username string) error {
	if user == nil {
		return ErrUnauthenticated
	}
	author, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.store.WithTx(ctx, "unfollow", func(tx *store.Store) error {
		_, err := tx.Unfollow(ctx, user.ID, author.ID)
		return err
	})
}

// Feed lists posts by the authors user follows, newest first.
func (s *Service) Feed(ctx context.Context, user *models.User, page int) (*paginate.Page[models.Post], error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return s.store.ListPosts(ctx, store.PostFilter{FollowerID: user.ID}, page)
}
