package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// fakeClient implementa ports.AuthClient en memoria.
type fakeClient struct {
	mu        sync.Mutex
	listeners map[int]ports.AuthListener
	nextID    int

	current    *entity.Session
	getErr     error
	getGate    chan struct{} // si no es nil, GetSession espera hasta que se cierre
	users      map[string]fakeUser
	signInErr  error
	signOutErr error
	lastEmail  string
	getCalls   int
}

type fakeUser struct {
	password string
	username string
	cargo    string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		listeners: map[int]ports.AuthListener{},
		users:     map[string]fakeUser{},
	}
}

func (f *fakeClient) addUser(email, password, username, cargo string) {
	f.users[email] = fakeUser{password: password, username: username, cargo: cargo}
}

func sessionFor(email, username, cargo string, ttl time.Duration) *entity.Session {
	return &entity.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresAt:    time.Now().Add(ttl),
		User: entity.SessionUser{
			ID:    "id-" + email,
			Email: email,
			Metadata: map[string]any{
				entity.MetadataUsername: username,
				entity.MetadataCargo:    cargo,
			},
		},
	}
}

func (f *fakeClient) GetSession(ctx context.Context) (*entity.Session, error) {
	f.mu.Lock()
	gate := f.getGate
	f.getCalls++
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.current, nil
}

func (f *fakeClient) SignInWithPassword(_ context.Context, email, password string) (*entity.Session, error) {
	f.mu.Lock()
	f.lastEmail = email
	if f.signInErr != nil {
		err := f.signInErr
		f.mu.Unlock()
		return nil, err
	}
	u, ok := f.users[email]
	if !ok || u.password != password {
		f.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess := sessionFor(email, u.username, u.cargo, time.Hour)
	f.current = sess
	f.mu.Unlock()
	f.emit(ports.EventSignedIn, sess)
	return sess, nil
}

func (f *fakeClient) SignOut(context.Context) error {
	f.mu.Lock()
	f.current = nil
	err := f.signOutErr
	f.mu.Unlock()
	f.emit(ports.EventSignedOut, nil)
	return err
}

func (f *fakeClient) OnAuthStateChange(fn ports.AuthListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeClient) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeClient) emit(ev ports.AuthEvent, sess *entity.Session) {
	f.mu.Lock()
	ls := make([]ports.AuthListener, 0, len(f.listeners))
	for i := 0; i < f.nextID; i++ {
		if l, ok := f.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	f.mu.Unlock()
	for _, l := range ls {
		l(ev, sess)
	}
}
