package web

import (
	"errors"
	"net/http"

	"github.com/beesaferoot/yatube/internal/accounts"
	"github.com/beesaferoot/yatube/internal/forms"
)

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "users/signup.html", templateData{
			"Form":   accounts.SignupForm{},
			"Errors": forms.Errors{},
		})
		return
	}

	form := accounts.SignupForm{
		Username:  r.PostFormValue("username"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
	user, err := s.accounts.Register(r.Context(), form)
	var errs forms.Errors
	if errors.As(err, &errs) {
		form.Password1, form.Password2 = "", ""
		s.render(w, r, http.StatusOK, "users/signup.html", templateData{"Form": form, "Errors": errs})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.accounts.Login(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setSessionCookie(w, token, s.cfg.SecureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "users/login.html", templateData{
			"Next":     safeNext(r.URL.Query().Get("next")),
			"Username": "",
			"Error":    "",
		})
		return
	}

	username := r.PostFormValue("username")
	next := safeNext(r.PostFormValue("next"))
	user, err := s.accounts.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		s.render(w, r, http.StatusOK, "users/login.html", templateData{
			"Next":     next,
			"Username": username,
			"Error":    "Please enter a correct username and password.",
		})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.accounts.Login(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setSessionCookie(w, token, s.cfg.SecureCookies)
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.accounts.Logout(r.Context(), cookie.Value); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	clearSessionCookie(w, s.cfg.SecureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}
