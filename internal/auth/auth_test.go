package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/ssma-incidents/internal/models"
	"github.com/mr1hm/ssma-incidents/internal/repository"
)

type fakeUsers struct {
	users map[string]models.User
	err   error
}

func (f *fakeUsers) GetUser(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func newTestAuth(t *testing.T, clock clockwork.Clock) *Authenticator {
	hash, err := HashPassword("1234")
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]models.User{
		"teste": {ID: 1, Username: "teste", PasswordHash: hash},
	}}
	return NewAuthenticator(users, NewSessionStore(time.Hour, clock))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3nha")
	require.NoError(t, err)

	assert.NotEqual(t, "s3nha", hash)
	assert.True(t, CheckPassword(hash, "s3nha"))
	assert.False(t, CheckPassword(hash, "senha"))
	assert.False(t, CheckPassword("not-a-hash", "s3nha"))
}

func TestAuthenticator_Login(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := newTestAuth(t, clock)
	ctx := context.Background()

	sess, err := a.Login(ctx, "teste", "1234")
	require.NoError(t, err)
	assert.Equal(t, "teste", sess.Username)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, clock.Now().Add(time.Hour), sess.ExpiresAt)

	got, ok := a.Session(sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess, got)

	_, err = a.Login(ctx, "teste", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Login(ctx, "ninguem", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticator_StoreError(t *testing.T) {
	a := NewAuthenticator(&fakeUsers{err: errors.New("database is locked")}, NewSessionStore(time.Hour, clockwork.NewFakeClock()))

	_, err := a.Login(context.Background(), "teste", "1234")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticator_Logout(t *testing.T) {
	a := newTestAuth(t, clockwork.NewFakeClock())

	sess, err := a.Login(context.Background(), "teste", "1234")
	require.NoError(t, err)

	a.Logout(sess.Token)
	_, ok := a.Session(sess.Token)
	assert.False(t, ok)

	_, ok = a.Session("")
	assert.False(t, ok)
}

func TestSessionStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(30*time.Minute, clock)

	first := store.Create("ana")
	clock.Advance(20 * time.Minute)
	second := store.Create("bruno")

	_, ok := store.Get(first.Token)
	assert.True(t, ok)

	clock.Advance(10 * time.Minute)
	_, ok = store.Get(first.Token)
	assert.False(t, ok, "session expires exactly at its deadline")
	assert.Equal(t, 1, store.Len())

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())

	_, ok = store.Get(second.Token)
	assert.False(t, ok)
}

func TestSessionStore_UniqueTokens(t *testing.T) {
	store := NewSessionStore(time.Hour, clockwork.NewFakeClock())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := store.Create("teste")
		assert.False(t, seen[s.Token], "duplicate token %s", s.Token)
		seen[s.Token] = true
	}
	assert.Equal(t, 100, store.Len())
}

func TestSeed(t *testing.T) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	created, err := Seed(ctx, db, "teste", "1234")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Seed(ctx, db, "teste", "outra")
	require.NoError(t, err)
	assert.False(t, created)

	a := NewAuthenticator(db, NewSessionStore(time.Hour, clockwork.NewFakeClock()))
	_, err = a.Login(ctx, "teste", "1234")
	assert.NoError(t, err)
}

func TestSessionStore_RunSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := clockwork.NewFakeClock()
	store := NewSessionStore(time.Minute, clock)
	store.Create("teste")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.RunSweeper(ctx, 5*time.Minute)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
