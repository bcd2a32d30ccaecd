package posts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/yatube/internal/forms"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/posts"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/internal/testutil"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type fixture struct {
	*testutil.Env
	svc       *posts.Service
	mediaRoot string
}

func setup(t *testing.T) *fixture {
	env := testutil.NewEnv(t)
	root := t.TempDir()
	return &fixture{
		Env:       env,
		svc:       posts.NewService(env.Store, media.NewLocalStorage(root, "/media/")),
		mediaRoot: root,
	}
}

func (f *fixture) mediaExists(name string) bool {
	_, err := os.Stat(filepath.Join(f.mediaRoot, filepath.FromSlash(name)))
	return err == nil
}

func formErrors(t *testing.T, err error) forms.Errors {
	t.Helper()
	var errs forms.Errors
	require.True(t, errors.As(err, &errs), "expected form errors, got %v", err)
	return errs
}

func TestCreatePost_AppearsOnIndex(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")

	post, err := f.svc.CreatePost(ctx, author, posts.PostForm{Text: "hello"})
	require.NoError(t, err)
	assert.Nil(t, post.GroupID)

	page, err := f.svc.Index(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Len())
	assert.Equal(t, "hello", page.Items[0].Text)
	assert.Nil(t, page.Items[0].Group)
	assert.Equal(t, author.Username, page.Items[0].Author.Username)
}

func TestCreatePost_WithGroupAndImage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")
	group := f.Group(t, "test-slug")

	post, err := f.svc.CreatePost(ctx, author, posts.PostForm{
		Text:  "  with a picture ",
		Group: strconv.Itoa(int(group.ID)),
		Image: &media.Upload{Filename: "small.gif", Data: smallGIF},
	})
	require.NoError(t, err)
	assert.Equal(t, "with a picture", post.Text)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	require.True(t, post.HasImage())
	assert.True(t, f.mediaExists(post.Image))

	listing, err := f.svc.GroupPosts(ctx, "test-slug", 1)
	require.NoError(t, err)
	require.Equal(t, 1, listing.Page.Len())
	assert.Equal(t, post.Image, listing.Page.Items[0].Image)
}

func TestCreatePost_Invalid(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")

	_, err := f.svc.CreatePost(ctx, nil, posts.PostForm{Text: "anonymous"})
	assert.ErrorIs(t, err, posts.ErrUnauthenticated)

	_, err = f.svc.CreatePost(ctx, author, posts.PostForm{Text: "   "})
	errs := formErrors(t, err)
	assert.Equal(t, forms.MsgRequired, errs["text"])

	_, err = f.svc.CreatePost(ctx, author, posts.PostForm{Text: "x", Group: "999"})
	errs = formErrors(t, err)
	assert.Equal(t, forms.MsgInvalidChoice, errs["group"])

	_, err = f.svc.CreatePost(ctx, author, posts.PostForm{Text: "x", Group: "abc"})
	errs = formErrors(t, err)
	assert.Contains(t, errs, "group")

	_, err = f.svc.CreatePost(ctx, author, posts.PostForm{
		Text:  "x",
		Image: &media.Upload{Filename: "fake.gif", Data: []byte("not an image")},
	})
	errs = formErrors(t, err)
	assert.Equal(t, posts.MsgInvalidImage, errs["image"])

	total, err := f.Store.CountPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	entries, err := os.ReadDir(f.mediaRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEditPost_NonAuthorLeavesTextUnchanged(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "auth")
	other := f.User(t, "Stanislav")
	post := f.Post(t, author, "test-text", nil)

	_, err := f.svc.PostForEdit(ctx, other, post.ID)
	assert.ErrorIs(t, err, posts.ErrForbidden)

	_, err = f.svc.EditPost(ctx, other, post.ID, posts.PostForm{Text: "hijacked"})
	assert.ErrorIs(t, err, posts.ErrForbidden)

	_, err = f.svc.EditPost(ctx, nil, post.ID, posts.PostForm{Text: "hijacked"})
	assert.ErrorIs(t, err, posts.ErrUnauthenticated)

	stored, err := f.Store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-text", stored.Text)
}

func TestEditPost_ByAuthor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")
	group := f.Group(t, "")

	post, err := f.svc.CreatePost(ctx, author, posts.PostForm{
		Text:  "test-text",
		Group: strconv.Itoa(int(group.ID)),
		Image: &media.Upload{Filename: "small.gif", Data: smallGIF},
	})
	require.NoError(t, err)
	createdAt := post.CreatedAt

	form := posts.FormFromPost(post)
	assert.Equal(t, strconv.Itoa(int(group.ID)), form.Group)

	// no group in the form drops the group, no upload keeps the image
	edited, err := f.svc.EditPost(ctx, author, post.ID, posts.PostForm{Text: "new-edit-text"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, edited.ID)
	assert.Equal(t, author.ID, edited.AuthorID)
	assert.Equal(t, "new-edit-text", edited.Text)
	assert.Nil(t, edited.GroupID)
	assert.Equal(t, post.Image, edited.Image)
	assert.True(t, createdAt.Equal(edited.CreatedAt))

	replaced, err := f.svc.EditPost(ctx, author, post.ID, posts.PostForm{
		Text:  "new image",
		Image: &media.Upload{Filename: "other.gif", Data: smallGIF},
	})
	require.NoError(t, err)
	assert.NotEqual(t, post.Image, replaced.Image)
	assert.False(t, f.mediaExists(post.Image))
	assert.True(t, f.mediaExists(replaced.Image))

	cleared, err := f.svc.EditPost(ctx, author, post.ID, posts.PostForm{Text: "no image", ClearImage: true})
	require.NoError(t, err)
	assert.False(t, cleared.HasImage())
	assert.False(t, f.mediaExists(replaced.Image))

	_, err = f.svc.EditPost(ctx, author, post.ID, posts.PostForm{Text: ""})
	errs := formErrors(t, err)
	assert.Contains(t, errs, "text")

	_, err = f.svc.EditPost(ctx, author, 4242, posts.PostForm{Text: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")
	reader := f.User(t, "")
	post := f.Post(t, author, "", nil)

	_, err := f.svc.AddComment(ctx, nil, post.ID, "anonymous")
	assert.ErrorIs(t, err, posts.ErrUnauthenticated)

	_, err = f.svc.AddComment(ctx, reader, post.ID, " ")
	errs := formErrors(t, err)
	assert.Contains(t, errs, "text")

	_, err = f.svc.AddComment(ctx, reader, 4242, "lost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	first, err := f.svc.AddComment(ctx, reader, post.ID, "test-comment")
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, author, post.ID, "reply")
	require.NoError(t, err)

	detail, err := f.svc.Detail(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, first.ID, detail.Comments[0].ID)
	assert.Equal(t, reader.Username, detail.Comments[0].Author.Username)
	assert.Equal(t, int64(1), detail.AuthorPostCount)
}

func TestListings_Paginate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")
	group := f.Group(t, "")
	for i := 0; i < 15; i++ {
		f.Post(t, author, "", group)
	}

	for _, page := range []struct {
		number int
		want   int
	}{{1, 10}, {2, 5}, {3, 5}, {-1, 10}} {
		index, err := f.svc.Index(ctx, page.number)
		require.NoError(t, err)
		assert.Equal(t, page.want, index.Len(), "page %d", page.number)

		byGroup, err := f.svc.GroupPosts(ctx, group.Slug, page.number)
		require.NoError(t, err)
		assert.Equal(t, page.want, byGroup.Page.Len())
	}

	profile, err := f.svc.Profile(ctx, nil, author.Username, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, profile.Page.Len())
	assert.Equal(t, int64(15), profile.PostCount())

	_, err = f.svc.GroupPosts(ctx, "missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.Profile(ctx, nil, "missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.Detail(ctx, 4242)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIndexPageNumber_Clamps(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	author := f.User(t, "")
	for i := 0; i < 15; i++ {
		f.Post(t, author, "", nil)
	}

	for requested, want := range map[int]int{-5: 1, 0: 1, 1: 1, 2: 2, 3: 2, 9999: 2} {
		got, err := f.svc.IndexPageNumber(ctx, requested)
		require.NoError(t, err)
		assert.Equal(t, want, got, "page %d", requested)
	}
}
