package web_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/yatube/internal/accounts"
	"github.com/beesaferoot/yatube/internal/cache"
	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/internal/testutil"
	"github.com/beesaferoot/yatube/internal/web"
	"github.com/beesaferoot/yatube/models"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type app struct {
	*testutil.Env
	srv   *web.Server
	cache *cache.MemoryCache
}

func newApp(t *testing.T, configure ...func(*config.Config)) *app {
	env := testutil.NewEnv(t)
	cfg := &config.Config{
		MediaRoot:     t.TempDir(),
		MediaURL:      config.DefaultMediaURL,
		IndexCacheTTL: config.DefaultIndexCacheTTL,
	}
	for _, fn := range configure {
		fn(cfg)
	}
	pages := cache.NewMemoryCache(env.Clock)
	srv, err := web.NewServer(web.Options{
		Config: cfg,
		Store:  env.Store,
		Media:  media.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL),
		Cache:  pages,
		Clock:  env.Clock,
	})
	require.NoError(t, err)
	return &app{Env: env, srv: srv, cache: pages}
}

type request struct {
	method      string
	target      string
	body        io.Reader
	contentType string
	as          *models.User
	cookies     []*http.Cookie
	referer     string
}

func (a *app) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	if req.method == "" {
		req.method = http.MethodGet
	}
	r := httptest.NewRequest(req.method, req.target, req.body)
	if req.contentType != "" {
		r.Header.Set("Content-Type", req.contentType)
	}
	if req.referer != "" {
		r.Header.Set("Referer", req.referer)
	}
	if req.as != nil {
		token, err := accounts.NewService(a.Store).Login(context.Background(), req.as)
		require.NoError(t, err)
		r.AddCookie(&http.Cookie{Name: "sessionid", Value: token})
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, r)
	return rec
}

func (a *app) get(t *testing.T, target string, as *models.User) *httptest.ResponseRecorder {
	return a.do(t, request{target: target, as: as})
}

func (a *app) postForm(t *testing.T, target string, values url.Values, as *models.User) *httptest.ResponseRecorder {
	return a.do(t, request{
		method:      http.MethodPost,
		target:      target,
		body:        strings.NewReader(values.Encode()),
		contentType: "application/x-www-form-urlencoded",
		as:          as,
	})
}

func countPosts(body string) int {
	return strings.Count(body, `<article class="post">`)
}

func TestPublicPages(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "auth")
	group := a.Group(t, "test-slug")
	post := a.Post(t, author, "test-text", group)

	for _, target := range []string{
		"/",
		"/group/test-slug/",
		"/profile/auth/",
		"/posts/" + itoa(post.ID) + "/",
		"/about/author/",
		"/about/tech/",
		"/auth/login/",
		"/auth/signup/",
	} {
		t.Run(target, func(t *testing.T) {
			rec := a.get(t, target, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		})
	}

	detail := a.get(t, "/posts/"+itoa(post.ID)+"/", nil).Body.String()
	assert.Contains(t, detail, "test-text")
	assert.Contains(t, detail, "/group/test-slug/")
	assert.NotContains(t, detail, "/edit/")

	rec := a.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestNotFound(t *testing.T) {
	a := newApp(t)
	a.User(t, "auth")

	for _, target := range []string{"/weird/page/", "/group/missing/", "/profile/nobody/", "/posts/4242/", "/posts/99999999999/"} {
		t.Run(target, func(t *testing.T) {
			rec := a.get(t, target, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "Page not found")
		})
	}
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "auth")
	post := a.Post(t, author, "", nil)
	id := itoa(post.ID)

	cases := []struct {
		method string
		target string
		next   string
	}{
		{http.MethodGet, "/create/", "/create/"},
		{http.MethodGet, "/follow/", "/follow/"},
		{http.MethodGet, "/posts/" + id + "/edit/", "/posts/" + id + "/edit/"},
		{http.MethodPost, "/create/", "/create/"},
		{http.MethodPost, "/posts/" + id + "/comment/", "/posts/" + id + "/"},
		{http.MethodPost, "/profile/auth/follow/", "/profile/auth/"},
		{http.MethodPost, "/profile/auth/unfollow/", "/profile/auth/"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := a.do(t, request{method: tc.method, target: tc.target})
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/auth/login/?next="+url.QueryEscape(tc.next), rec.Header().Get("Location"))
		})
	}

	var comments int64
	require.NoError(t, a.DB.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
}

func TestAuthorizedPages(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "auth")
	other := a.User(t, "Stanislav")
	post := a.Post(t, author, "test-text", nil)
	edit := "/posts/" + itoa(post.ID) + "/edit/"

	for _, target := range []string{"/create/", "/follow/", edit} {
		rec := a.get(t, target, author)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
	assert.Contains(t, a.get(t, edit, author).Body.String(), "test-text")

	rec := a.get(t, edit, other)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/posts/"+itoa(post.ID)+"/", rec.Header().Get("Location"))
}

func multipartPost(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "small.gif")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreatePost(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "Stanislav")
	group := a.Group(t, "")

	body, contentType := multipartPost(t, map[string]string{"text": "test-txxtt", "group": itoa(group.ID)}, smallGIF)
	rec := a.do(t, request{method: http.MethodPost, target: "/create/", body: body, contentType: contentType, as: author})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/profile/Stanislav/", rec.Header().Get("Location"))

	page, err := a.Store.ListPosts(context.Background(), store.PostFilter{}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Len())
	created := page.Items[0]
	assert.Equal(t, "test-txxtt", created.Text)
	require.NotNil(t, created.Group)
	assert.Equal(t, group.ID, created.Group.ID)
	require.True(t, created.HasImage())

	img := a.get(t, "/media/"+created.Image, nil)
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, smallGIF, img.Body.Bytes())

	group1 := a.get(t, "/group/"+group.Slug+"/", nil).Body.String()
	assert.Contains(t, group1, "/media/"+created.Image)
}

func TestCreatePost_InvalidForm(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "")

	body, contentType := multipartPost(t, map[string]string{"text": "with a bad image"}, []byte("not an image"))
	rec := a.do(t, request{method: http.MethodPost, target: "/create/", body: body, contentType: contentType, as: author})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload a valid image")
	assert.Contains(t, rec.Body.String(), "with a bad image")

	rec = a.postForm(t, "/create/", url.Values{"text": {""}}, author)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")

	total, err := a.Store.CountPosts(context.Background(), store.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	author := a.User(t, "auth")
	other := a.User(t, "")
	post := a.Post(t, author, "test-text", a.Group(t, ""))
	edit := "/posts/" + itoa(post.ID) + "/edit/"
	detail := "/posts/" + itoa(post.ID) + "/"

	rec := a.postForm(t, edit, url.Values{"text": {"hijacked"}}, other)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get("Location"))
	stored, err := a.Store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-text", stored.Text)

	rec = a.postForm(t, edit, url.Values{"text": {"new-edit-text"}}, author)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get("Location"))
	stored, err = a.Store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-edit-text", stored.Text)
	assert.Nil(t, stored.GroupID)
	assert.Equal(t, author.ID, stored.AuthorID)
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	author := a.User(t, "")
	reader := a.User(t, "reader")
	post := a.Post(t, author, "", nil)
	target := "/posts/" + itoa(post.ID) + "/comment/"

	rec := a.postForm(t, target, url.Values{"text": {"test-comment"}}, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/posts/"+itoa(post.ID)+"/", rec.Header().Get("Location"))

	rec = a.postForm(t, target, url.Values{"text": {"   "}}, reader)
	assert.Equal(t, http.StatusFound, rec.Code)

	comments, err := a.Store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "test-comment", comments[0].Text)
	assert.Equal(t, reader.ID, comments[0].AuthorID)

	page := a.get(t, "/posts/"+itoa(post.ID)+"/", nil).Body.String()
	assert.Contains(t, page, "test-comment")

	rec = a.postForm(t, "/posts/4242/comment/", url.Values{"text": {"lost"}}, reader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowFeed(t *testing.T) {
	a := newApp(t)
	userA := a.User(t, "A")
	b := a.User(t, "B")
	userC := a.User(t, "C")
	a.Post(t, b, "post by b", nil)

	rec := a.postForm(t, "/profile/B/follow/", nil, userA)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/B/", rec.Header().Get("Location"))

	assert.Contains(t, a.get(t, "/follow/", userA).Body.String(), "post by b")
	assert.NotContains(t, a.get(t, "/follow/", userC).Body.String(), "post by b")
	assert.Contains(t, a.get(t, "/profile/B/", userA).Body.String(), "Unfollow")

	rec = a.postForm(t, "/profile/B/unfollow/", nil, userA)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotContains(t, a.get(t, "/follow/", userA).Body.String(), "post by b")

	rec = a.postForm(t, "/profile/nobody/follow/", nil, userA)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPagination(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "auth")
	group := a.Group(t, "test-slug")
	for i := 0; i < 15; i++ {
		a.Post(t, author, "", group)
	}

	for _, base := range []string{"/", "/group/test-slug/", "/profile/auth/"} {
		assert.Equal(t, 10, countPosts(a.get(t, base, author).Body.String()), base)
		assert.Equal(t, 5, countPosts(a.get(t, base+"?page=2", author).Body.String()), base)
		assert.Equal(t, 5, countPosts(a.get(t, base+"?page=99", author).Body.String()), base)
		assert.Equal(t, 10, countPosts(a.get(t, base+"?page=abc", author).Body.String()), base)
	}
}

func TestIndexCache(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "")
	a.Post(t, author, "first post", nil)

	assert.Contains(t, a.get(t, "/", nil).Body.String(), "first post")

	// same timestamp as the cached render, so the entry is still fresh
	second := &models.Post{Text: "second post", AuthorID: author.ID}
	require.NoError(t, a.Store.CreatePost(context.Background(), second))
	assert.NotContains(t, a.get(t, "/", nil).Body.String(), "second post")
	assert.Contains(t, a.get(t, "/", author).Body.String(), "second post")

	a.Clock.Advance(21 * time.Second)
	assert.Contains(t, a.get(t, "/", nil).Body.String(), "second post")
}

func TestIndexCache_OutOfRangePagesShareEntry(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "")
	a.Post(t, author, "only post", nil)

	for _, page := range []string{"", "1", "0", "-5", "2", "9999", "abc"} {
		rec := a.get(t, "/?page="+page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "only post")
	}
	assert.Equal(t, 1, a.cache.Len())
}

func TestSignupLoginLogout(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)

	rec := a.postForm(t, "/auth/signup/", url.Values{
		"username":  {"leo"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.NotEmpty(t, sessionFrom(rec))
	_, err := a.Store.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)

	rec = a.postForm(t, "/auth/signup/", url.Values{
		"username":  {"leo"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = a.postForm(t, "/auth/login/", url.Values{"username": {"leo"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "correct username and password")

	rec = a.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"/follow/"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/follow/", rec.Header().Get("Location"))
	token := sessionFrom(rec)
	require.NotEmpty(t, token)

	session := &http.Cookie{Name: "sessionid", Value: token}
	rec = a.do(t, request{target: "/follow/", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, request{method: http.MethodPost, target: "/auth/logout/", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusFound, rec.Code)
	rec = a.do(t, request{target: "/follow/", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = a.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"//evil.example.com/"},
	}, nil)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func sessionFrom(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sessionid" {
			return c.Value
		}
	}
	return ""
}

var csrfField = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func TestCSRF(t *testing.T) {
	a := newApp(t, func(cfg *config.Config) {
		cfg.SecretKey = "0123456789abcdef0123456789abcdef"
	})
	a.User(t, "leo")

	rec := a.postForm(t, "/auth/login/", url.Values{"username": {"leo"}, "password": {testutil.Password}}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF verification failed")

	form := a.get(t, "/auth/login/", nil)
	require.Equal(t, http.StatusOK, form.Code)
	match := csrfField.FindStringSubmatch(form.Body.String())
	require.Len(t, match, 2)

	rec = a.do(t, request{
		method: http.MethodPost,
		target: "/auth/login/",
		body: strings.NewReader(url.Values{
			"username":           {"leo"},
			"password":           {testutil.Password},
			"gorilla.csrf.Token": {match[1]},
		}.Encode()),
		contentType: "application/x-www-form-urlencoded",
		cookies:     form.Result().Cookies(),
	})
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestCSRF_SecureChecksReferer(t *testing.T) {
	a := newApp(t, func(cfg *config.Config) {
		cfg.SecretKey = "0123456789abcdef0123456789abcdef"
		cfg.SecureCookies = true
	})
	a.User(t, "leo")

	form := a.get(t, "/auth/login/", nil)
	require.Equal(t, http.StatusOK, form.Code)
	match := csrfField.FindStringSubmatch(form.Body.String())
	require.Len(t, match, 2)

	login := func(referer string) *httptest.ResponseRecorder {
		return a.do(t, request{
			method: http.MethodPost,
			target: "/auth/login/",
			body: strings.NewReader(url.Values{
				"username":           {"leo"},
				"password":           {testutil.Password},
				"gorilla.csrf.Token": {match[1]},
			}.Encode()),
			contentType: "application/x-www-form-urlencoded",
			cookies:     form.Result().Cookies(),
			referer:     referer,
		})
	}

	assert.Equal(t, http.StatusForbidden, login("").Code)
	assert.Equal(t, http.StatusForbidden, login("https://evil.example.org/auth/login/").Code)
	// httptest requests are addressed to example.com
	assert.Equal(t, http.StatusFound, login("https://example.com/auth/login/").Code)
}

func TestMediaDirectoriesAreNotListed(t *testing.T) {
	a := newApp(t)
	author := a.User(t, "")

	body, contentType := multipartPost(t, map[string]string{"text": "with image"}, smallGIF)
	rec := a.do(t, request{method: http.MethodPost, target: "/create/", body: body, contentType: contentType, as: author})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	page, err := a.Store.ListPosts(context.Background(), store.PostFilter{}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Len())
	image := page.Items[0].Image

	assert.Equal(t, http.StatusOK, a.get(t, "/media/"+image, nil).Code)
	for _, dir := range []string{"/media/", "/media/posts/", "/media/posts"} {
		rec := a.get(t, dir, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, dir)
		assert.NotContains(t, rec.Body.String(), strings.TrimPrefix(image, "posts/"), dir)
	}
}
