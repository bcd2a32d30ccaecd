// Package web is the HTML front end: routing, sessions, CSRF protection and
// page rendering on top of the posts and accounts services.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"github.com/beesaferoot/yatube/internal/accounts"
	"github.com/beesaferoot/yatube/internal/cache"
	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/posts"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/internal/util"
)

//go:embed templates static
var assets embed.FS

var pages = []string{
	"posts/index.html",
	"posts/group_list.html",
	"posts/profile.html",
	"posts/post_detail.html",
	"posts/create_post.html",
	"posts/follow.html",
	"users/signup.html",
	"users/login.html",
	"about/author.html",
	"about/tech.html",
	"core/404.html",
	"core/500.html",
	"core/403csrf.html",
}

type Options struct {
	Config *config.Config
	Store  *store.Store
	Media  media.Storage
	// Cache holds rendered index pages for anonymous visitors; nil turns
	// page caching off.
	Cache cache.Cache
	Clock util.Clock
}

type Server struct {
	cfg       *config.Config
	store     *store.Store
	posts     *posts.Service
	accounts  *accounts.Service
	media     media.Storage
	cache     cache.Cache
	clock     util.Clock
	templates map[string]*template.Template
	handler   http.Handler
}

func NewServer(opts Options) (*Server, error) {
	clock := opts.Clock
	if clock == nil {
		clock = util.NewRealClock()
	}
	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		posts:    posts.NewService(opts.Store, opts.Media),
		accounts: accounts.NewService(opts.Store),
		media:    opts.Media,
		cache:    opts.Cache,
		clock:    clock,
	}

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}

	var h http.Handler = s.routes()
	if s.cfg.SecretKey != "" {
		h = csrf.Protect([]byte(s.cfg.SecretKey),
			csrf.Secure(s.cfg.SecureCookies),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(s.csrfFailure)),
		)(h)
		if !s.cfg.SecureCookies {
			// plain HTTP has no trustworthy Referer to check
			protected := h
			h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
			})
		}
	}
	s.handler = s.recoverer(s.logRequests(s.withUser(h)))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.NotFoundHandler = http.HandlerFunc(s.notFound)

	r.HandleFunc("/healthz", s.health).Methods("GET")

	r.HandleFunc("/", s.index).Methods("GET")
	r.HandleFunc("/group/{slug}/", s.groupPosts).Methods("GET")
	r.HandleFunc("/profile/{username}/", s.profile).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/", s.postDetail).Methods("GET")
	r.Handle("/create/", s.requireLogin(s.createPost)).Methods("GET", "POST")
	r.Handle("/posts/{id:[0-9]+}/edit/", s.requireLogin(s.editPost)).Methods("GET", "POST")
	r.Handle("/posts/{id:[0-9]+}/comment/", s.requireLogin(s.addComment)).Methods("POST")
	r.Handle("/follow/", s.requireLogin(s.followIndex)).Methods("GET")
	r.Handle("/profile/{username}/follow/", s.requireLogin(s.follow)).Methods("POST")
	r.Handle("/profile/{username}/unfollow/", s.requireLogin(s.unfollow)).Methods("POST")

	r.HandleFunc("/auth/signup/", s.signup).Methods("GET", "POST")
	r.HandleFunc("/auth/login/", s.login).Methods("GET", "POST")
	r.HandleFunc("/auth/logout/", s.logout).Methods("POST")

	r.HandleFunc("/about/author/", s.staticPage("about/author.html")).Methods("GET")
	r.HandleFunc("/about/tech/", s.staticPage("about/tech.html")).Methods("GET")

	static, _ := fs.Sub(assets, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	if local, ok := s.media.(*media.LocalStorage); ok {
		prefix := s.cfg.MediaURL
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(local.Root)})))
	}

	return r
}

// filesOnly serves files but reports directories as missing, so uploads
// cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

func (s *Server) parseTemplates() error {
	funcs := template.FuncMap{
		"mediaURL": s.media.URL,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
		"linebreaks": func(text string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(text), "\n", "<br>"))
		},
	}

	s.templates = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(assets,
			"templates/base.html",
			"templates/includes/*.html",
			"templates/"+page,
		)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %v", page, err)
		}
		s.templates[page] = t
	}
	return nil
}

// templateData is handed to every page; render adds the fields the layout
// needs.
type templateData map[string]any

func (s *Server) renderBytes(r *http.Request, page string, data templateData) ([]byte, error) {
	t, ok := s.templates[page]
	if !ok {
		return nil, fmt.Errorf("unknown template %s", page)
	}
	if data == nil {
		data = templateData{}
	}
	data["User"] = currentUser(r)
	data["CSRFField"] = csrf.TemplateField(r)
	data["Year"] = s.clock.NowUtc().Year()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %v", page, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data templateData) {
	body, err := s.renderBytes(r, page, data)
	if err != nil {
		log.Printf("error rendering page: %v", err)
		s.serverError(w, r)
		return
	}
	writeHTML(w, status, body)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "core/404.html", templateData{"Path": r.URL.Path})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request) {
	body, err := s.renderBytes(r, "core/500.html", nil)
	if err != nil {
		log.Printf("error rendering 500 page: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusInternalServerError, body)
}

func (s *Server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	log.Printf("csrf check failed for %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	s.render(w, r, http.StatusForbidden, "core/403csrf.html", nil)
}

func (s *Server) staticPage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, page, nil)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		log.Printf("health check failed: %v", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprint(w, "OK")
}
