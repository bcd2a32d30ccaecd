// Package accounts handles signup, password checks and browser sessions.
package accounts

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/beesaferoot/yatube/internal/forms"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

const (
	// SessionTTL is how long a login lasts.
	SessionTTL = 14 * 24 * time.Hour

	MinPasswordLength = 8
	MaxUsernameLength = 150
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

type SignupForm struct {
	Username  string
	FirstName string
	LastName  string
	Password1 string
	Password2 string
}

type Service struct {
	store *store.Store
	// Cost is the bcrypt cost for new password hashes.
	Cost int
}

func NewService(s *store.Store) *Service {
	return &Service{store: s, Cost: bcrypt.DefaultCost}
}

// Register validates f and creates the account. Validation problems come
// back as forms.Errors.
func (s *Service) Register(ctx context.Context, f SignupForm) (*models.User, error) {
	f.Username = strings.TrimSpace(f.Username)
	errs := forms.Errors{}

	switch {
	case f.Username == "":
		errs.Add("username", forms.MsgRequired)
	case len(f.Username) > MaxUsernameLength:
		errs.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(f.Username):
		errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	switch {
	case f.Password1 == "":
		errs.Add("password1", forms.MsgRequired)
	case len(f.Password1) < MinPasswordLength:
		errs.Add("password1", "This password is too short. It must contain at least 8 characters.")
	case f.Password1 != f.Password2:
		errs.Add("password2", "The two password fields didn't match.")
	}

	if errs.Any() {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password1), s.Cost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password failed")
	}

	user := &models.User{
		Username:     f.Username,
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errs.Add("username", "A user with that username already exists.")
			return nil, errs
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login starts a session and returns the token for the session cookie.
func (s *Service) Login(ctx context.Context, user *models.User) (string, error) {
	return s.store.CreateSession(ctx, user.ID, SessionTTL)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// CurrentUser resolves a session token. Missing, unknown and expired tokens
// all mean an anonymous visitor: nil user, nil error.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.store.UserBySession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
