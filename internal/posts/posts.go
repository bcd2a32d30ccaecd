// Package posts implements the blog's use cases on top of the store: the
// listings, post authoring, comments and the follow graph. The caller passes
// the current user explicitly; nil means an anonymous visitor.
package posts

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/beesaferoot/yatube/internal/forms"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

const MsgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

var (
	ErrUnauthenticated = errors.New("login required")
	ErrForbidden       = errors.New("only the author may edit this post")
)

// FormErrors is returned, as an error, when submitted fields are invalid.
type FormErrors = forms.Errors

// PostForm is a submitted create or edit form. Group holds the group id as
// sent by the browser; empty means no group.
type PostForm struct {
	Text       string
	Group      string
	Image      *media.Upload
	ClearImage bool
}

// FormFromPost prefills the edit form with the stored values.
func FormFromPost(p *models.Post) PostForm {
	f := PostForm{Text: p.Text}
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	return f
}

type Service struct {
	store *store.Store
	media media.Storage
}

func NewService(s *store.Store, m media.Storage) *Service {
	return &Service{store: s, media: m}
}

func (s *Service) Groups(ctx context.Context) ([]models.Group, error) {
	return s.store.ListGroups(ctx)
}

type cleanForm struct {
	text    string
	groupID *uint
}

func (s *Service) validate(ctx context.Context, f PostForm) (*cleanForm, error) {
	errs := forms.Errors{}
	clean := &cleanForm{text: strings.TrimSpace(f.Text)}

	if clean.text == "" {
		errs.Add("text", forms.MsgRequired)
	}

	if raw := strings.TrimSpace(f.Group); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			errs.Add("group", forms.MsgInvalidChoice)
		} else {
			group, err := s.store.GetGroup(ctx, uint(id))
			switch {
			case errors.Is(err, store.ErrNotFound):
				errs.Add("group", forms.MsgInvalidChoice)
			case err != nil:
				return nil, err
			default:
				clean.groupID = &group.ID
			}
		}
	}

	if f.Image != nil && len(f.Image.Data) > 0 {
		if _, err := media.ValidateImage(f.Image.Data); err != nil {
			errs.Add("image", MsgInvalidImage)
		}
	}

	if errs.Any() {
		return nil, errs
	}
	return clean, nil
}

func (s *Service) saveImage(ctx context.Context, f PostForm) (string, error) {
	if f.Image == nil || len(f.Image.Data) == 0 {
		return "", nil
	}
	return media.SaveImage(ctx, s.media, f.Image)
}

// discardImage removes a stored file that is no longer referenced. Failures
// only leave an orphan behind, so they are logged.
func (s *Service) discardImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.media.Delete(ctx, name); err != nil {
		log.Printf("error deleting image %s: %v", name, err)
	}
}

// CreatePost validates f and stores a new post by author.
func (s *Service) CreatePost(ctx context.Context, author *models.User, f PostForm) (*models.Post, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	clean, err := s.validate(ctx, f)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(ctx, f)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     clean.text,
		AuthorID: author.ID,
		GroupID:  clean.groupID,
		Image:    image,
	}
	err = s.store.WithTx(ctx, "create post", func(tx *store.Store) error {
		return tx.CreatePost(ctx, post)
	})
	if err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}
	post.Author = *author
	return post, nil
}

// PostForEdit loads a post for its edit form. Anyone but the author gets
// ErrForbidden.
func (s *Service) PostForEdit(ctx context.Context, editor *models.User, id uint) (*models.Post, error) {
	if editor == nil {
		return nil, ErrUnauthenticated
	}
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != editor.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

// EditPost replaces the text, group and image of a post. Without a new
// upload the old image is kept unless ClearImage is set.
func (s *Service) EditPost(ctx context.Context, editor *models.User, id uint, f PostForm) (*models.Post, error) {
	post, err := s.PostForEdit(ctx, editor, id)
	if err != nil {
		return nil, err
	}
	clean, err := s.validate(ctx, f)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(ctx, f)
	if err != nil {
		return nil, err
	}

	previous := post.Image
	post.Text = clean.text
	post.GroupID = clean.groupID
	post.Group = nil
	switch {
	case image != "":
		post.Image = image
	case f.ClearImage:
		post.Image = ""
	}

	err = s.store.WithTx(ctx, "edit post", func(tx *store.Store) error {
		current, err := tx.GetPost(ctx, id)
		if err != nil {
			return err
		}
		if current.AuthorID != editor.ID {
			return ErrForbidden
		}
		return tx.UpdatePost(ctx, post)
	})
	if err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}

	if previous != post.Image {
		s.discardImage(ctx, previous)
	}
	return s.store.GetPost(ctx, id)
}

// AddComment appends a comment by author to a post.
func (s *Service) AddComment(ctx context.Context, author *models.User, postID uint, text string) (*models.Comment, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		Text:     strings.TrimSpace(text),
		PostID:   postID,
		AuthorID: author.ID,
	}
	if comment.Text == "" {
		return nil, forms.Errors{"text": forms.MsgRequired}
	}
	err := s.store.WithTx(ctx, "add comment", func(tx *store.Store) error {
		return tx.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	comment.Author = *author
	return comment, nil
}
