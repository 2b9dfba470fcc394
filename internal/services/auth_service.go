package services

import (
	"errors"
	"strings"
	"time"

	"kiwa/internal/domain"
	"kiwa/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds    = errors.New("invalid email or password")
	ErrNotSignedIn = errors.New("not signed in")
)

// AuthService signs browser sessions in and out of the seeded accounts.
type AuthService struct {
	Users *repos.UserRepo
	// Idle is how long a signed-in session survives without requests; zero
	// keeps it until logout.
	Idle time.Duration
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrNotSignedIn
	}
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	if sid == "" {
		return nil
	}
	return s.Users.UnbindSession(sid)
}

// CurrentUser returns ErrNotSignedIn for anonymous or expired sessions.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrNotSignedIn
	}
	u, err := s.Users.SessionUser(sid, s.Idle)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	return u, err
}

// ExpireIdle signs out sessions that have been idle past s.Idle.
func (s *AuthService) ExpireIdle(now time.Time) (int64, error) {
	if s.Idle <= 0 {
		return 0, nil
	}
	return s.Users.ExpireIdle(now.Add(-s.Idle))
}
