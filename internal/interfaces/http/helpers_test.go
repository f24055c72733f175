package http_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/application/usecase"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/access"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
	apphttp "github.com/jhoicas/portal-interno/internal/interfaces/http"
)

const (
	testCookie = "portal_sid"
	testDomain = "empresa.com.br"
)

// fakeIdentity servicio de identidad en memoria: usuarios y sesiones por sid.
type fakeIdentity struct {
	mu       sync.Mutex
	users    map[string]fakeAccount // por email
	sessions map[string]*entity.Session
	gate     chan struct{} // si no es nil, GetSession espera hasta que se cierre
	down     bool
	created  []ports.CreateUserInput
}

type fakeAccount struct {
	password string
	username string
	cargo    string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users:    map[string]fakeAccount{},
		sessions: map[string]*entity.Session{},
	}
}

func (f *fakeIdentity) addUser(username, cargo string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username+"@"+testDomain] = fakeAccount{password: "senha-123", username: username, cargo: cargo}
}

// signedIn crea una sesión ya persistida y devuelve su sid.
func (f *fakeIdentity) signedIn(username, cargo string) string {
	sid := uuid.NewString()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sid] = newSession(username+"@"+testDomain, username, cargo)
	return sid
}

func newSession(email, username, cargo string) *entity.Session {
	return &entity.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresAt:    time.Now().Add(time.Hour),
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

func (f *fakeIdentity) client(sid string) ports.AuthClient {
	return &fakeAuth{id: f, sid: sid}
}

// fakeAuth AuthClient de una sesión de navegador.
type fakeAuth struct {
	id  *fakeIdentity
	sid string

	mu        sync.Mutex
	listeners []ports.AuthListener
}

func (a *fakeAuth) GetSession(ctx context.Context) (*entity.Session, error) {
	a.id.mu.Lock()
	gate := a.id.gate
	a.id.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a.id.mu.Lock()
	defer a.id.mu.Unlock()
	if a.id.down {
		return nil, domain.ErrIdentityUnavailable
	}
	return a.id.sessions[a.sid], nil
}

func (a *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*entity.Session, error) {
	a.id.mu.Lock()
	if a.id.down {
		a.id.mu.Unlock()
		return nil, domain.ErrIdentityUnavailable
	}
	u, ok := a.id.users[email]
	if !ok || u.password != password {
		a.id.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess := newSession(email, u.username, u.cargo)
	a.id.sessions[a.sid] = sess
	a.id.mu.Unlock()

	a.emit(ports.EventSignedIn, sess)
	return sess, nil
}

func (a *fakeAuth) SignOut(context.Context) error {
	a.id.mu.Lock()
	delete(a.id.sessions, a.sid)
	a.id.mu.Unlock()
	a.emit(ports.EventSignedOut, nil)
	return nil
}

func (a *fakeAuth) OnAuthStateChange(fn ports.AuthListener) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
	return func() {}
}

func (a *fakeAuth) emit(ev ports.AuthEvent, sess *entity.Session) {
	a.mu.Lock()
	ls := append([]ports.AuthListener(nil), a.listeners...)
	a.mu.Unlock()
	for _, fn := range ls {
		fn(ev, sess)
	}
}

// AdminService en memoria.
func (f *fakeIdentity) ResetPasswordForEmail(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return domain.ErrIdentityUnavailable
	}
	return nil
}

func (f *fakeIdentity) CreateUser(_ context.Context, in ports.CreateUserInput) (*entity.SessionUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, fmt.Errorf("supabase: 500 unexpected_failure %s: %w", in.Email, domain.ErrIdentityUnavailable)
	}
	if _, ok := f.users[in.Email]; ok {
		return nil, domain.ErrConflict
	}
	f.users[in.Email] = fakeAccount{password: in.Password, username: in.Username, cargo: string(in.Cargo)}
	f.created = append(f.created, in)
	return &entity.SessionUser{ID: "id-" + in.Email, Email: in.Email}, nil
}

func buildTestApp(t *testing.T, ident *fakeIdentity, loadWait time.Duration) *fiber.App {
	t.Helper()
	mgr, err := session.NewManager(ident.client, 16, session.Options{EmailDomain: testDomain}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(mgr.Close)

	app := fiber.New()
	err = apphttp.Router(app, apphttp.RouterDeps{
		Sessions: mgr,
		Table:    access.DefaultTable(),
		UserUC:   usecase.NewUserUseCase(ident, testDomain, "http://portal.test/redefinir-senha", zerolog.Nop()),
		Cookie:   apphttp.CookieConfig{Name: testCookie},
		Pages: apphttp.PageConfig{
			AppName: "Portal Teste",
			Embeds:  map[string]string{"/dashboard": "https://bi.example.com/embed/1"},
		},
		LoadWait: loadWait,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return app
}

func get(t *testing.T, app *fiber.App, path, sid string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: sid})
	}
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, app *fiber.App, path, sid, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: sid})
	}
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	return resp
}

// sessionCookie valor de la cookie de sesión enviada en la respuesta, o "".
func sessionCookie(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == testCookie {
			return ck.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
