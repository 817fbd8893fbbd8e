package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mr1hm/ssma-incidents/internal/models"
	"github.com/mr1hm/ssma-incidents/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type Authenticator struct {
	users    UserStore
	sessions *SessionStore
}

func NewAuthenticator(users UserStore, sessions *SessionStore) *Authenticator {
	return &Authenticator{
		users:    users,
		sessions: sessions,
	}
}

// Login checks the credentials and opens a session. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := a.users.GetUser(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("error loading user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}

	return a.sessions.Create(u.Username), nil
}

func (a *Authenticator) Logout(token string) {
	a.sessions.Delete(token)
}

func (a *Authenticator) Session(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	return a.sessions.Get(token)
}

// Seed creates the user with the given password unless it already exists.
func Seed(ctx context.Context, users repository.UserRepository, username, password string) (bool, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	return users.EnsureUser(ctx, username, hash)
}
