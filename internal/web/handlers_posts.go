package web

import (
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/beesaferoot/yatube/internal/forms"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/paginate"
	"github.com/beesaferoot/yatube/internal/posts"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

// maxFormMemory bounds the multipart form kept in memory; larger uploads
// spill to temporary files.
const maxFormMemory = media.MaxUploadSize + 1<<20

// fail turns a service error into the matching response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
	case errors.Is(err, posts.ErrUnauthenticated):
		redirectToLogin(w, r)
	default:
		log.Printf("error handling %s %s: %v", r.Method, r.URL.Path, err)
		s.serverError(w, r)
	}
}

func pageNumber(r *http.Request) int {
	return paginate.Number(r.URL.Query().Get("page"))
}

func postID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func detailURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// index is cached for anonymous visitors; signed-in pages carry per-user
// markup and are always rendered.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	number := pageNumber(r)
	cacheable := s.cache != nil && currentUser(r) == nil
	var key string

	if cacheable {
		// out-of-range numbers share the entry of the page they clamp to
		clamped, err := s.posts.IndexPageNumber(r.Context(), number)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		number = clamped
		key = "index:" + strconv.Itoa(number)

		body, ok, err := s.cache.Get(r.Context(), key)
		if err != nil {
			log.Printf("error reading page cache: %v", err)
		} else if ok {
			writeHTML(w, http.StatusOK, body)
			return
		}
	}

	page, err := s.posts.Index(r.Context(), number)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := s.renderBytes(r, "posts/index.html", templateData{"Page": page})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if cacheable {
		if err := s.cache.Set(r.Context(), key, body, s.cfg.IndexCacheTTL); err != nil {
			log.Printf("error writing page cache: %v", err)
		}
	}
	writeHTML(w, http.StatusOK, body)
}

func (s *Server) groupPosts(w http.ResponseWriter, r *http.Request) {
	listing, err := s.posts.GroupPosts(r.Context(), mux.Vars(r)["slug"], pageNumber(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/group_list.html", templateData{
		"Group": listing.Group,
		"Page":  listing.Page,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.posts.Profile(r.Context(), currentUser(r), mux.Vars(r)["username"], pageNumber(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/profile.html", templateData{"Profile": profile})
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	detail, err := s.posts.Detail(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/post_detail.html", templateData{
		"Post":            detail.Post,
		"Comments":        detail.Comments,
		"AuthorPostCount": detail.AuthorPostCount,
	})
}

// readPostForm collects the create/edit form. Uploads over the size limit
// are passed on and rejected by validation.
func readPostForm(r *http.Request) (posts.PostForm, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return posts.PostForm{}, err
	}
	f := posts.PostForm{
		Text:       r.PostFormValue("text"),
		Group:      r.PostFormValue("group"),
		ClearImage: r.PostFormValue("image-clear") != "",
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return f, nil
	case err != nil:
		return f, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxUploadSize+1))
	if err != nil {
		return f, err
	}
	f.Image = &media.Upload{Filename: header.Filename, Data: data}
	return f, nil
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, post *models.Post, form posts.PostForm, errs forms.Errors) {
	groups, err := s.posts.Groups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if errs == nil {
		errs = forms.Errors{}
	}
	s.render(w, r, http.StatusOK, "posts/create_post.html", templateData{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"Post":   post,
		"IsEdit": post != nil,
	})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if r.Method == http.MethodGet {
		s.renderPostForm(w, r, nil, posts.PostForm{}, nil)
		return
	}

	form, err := readPostForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, err = s.posts.CreatePost(r.Context(), user, form)
	var errs forms.Errors
	if errors.As(err, &errs) {
		s.renderPostForm(w, r, nil, form, errs)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	post, err := s.posts.PostForEdit(r.Context(), user, id)
	if errors.Is(err, posts.ErrForbidden) {
		http.Redirect(w, r, detailURL(id), http.StatusFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		s.renderPostForm(w, r, post, posts.FormFromPost(post), nil)
		return
	}

	form, err := readPostForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, err = s.posts.EditPost(r.Context(), user, id, form)
	var errs forms.Errors
	switch {
	case errors.As(err, &errs):
		s.renderPostForm(w, r, post, form, errs)
	case errors.Is(err, posts.ErrForbidden):
		http.Redirect(w, r, detailURL(id), http.StatusFound)
	case err != nil:
		s.fail(w, r, err)
	default:
		http.Redirect(w, r, detailURL(id), http.StatusFound)
	}
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	_, err := s.posts.AddComment(r.Context(), currentUser(r), id, r.PostFormValue("text"))
	var errs forms.Errors
	if err != nil && !errors.As(err, &errs) {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, detailURL(id), http.StatusFound)
}

func (s *Server) followIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.posts.Feed(r.Context(), currentUser(r), pageNumber(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/follow.html", templateData{"Page": page})
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if err := s.posts.Follow(r.Context(), currentUser(r), username); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(username), http.StatusFound)
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if err := s.posts.Unfollow(r.Context(), currentUser(r), username); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(username), http.StatusFound)
}
