package supabase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
	pkgjwt "github.com/jhoicas/portal-interno/pkg/jwt"
)

// Verificar en tiempo de compilación que AuthClient implementa el puerto.
var _ ports.AuthClient = (*AuthClient)(nil)

// AuthClient sesión de un navegador: tokens en TokenStorage bajo key y
// eventos de cambio para los listeners registrados.
type AuthClient struct {
	c     *Client
	key   string
	store ports.TokenStorage
	now   func() time.Time

	// opMu serializa refresh/login/logout de la misma sesión.
	opMu sync.Mutex

	mu        sync.Mutex
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id int
	fn ports.AuthListener
}

// ForSession devuelve el AuthClient ligado a la sesión de navegador key.
func (c *Client) ForSession(key string, store ports.TokenStorage) *AuthClient {
	return &AuthClient{c: c, key: key, store: store, now: time.Now}
}

// OnAuthStateChange registra fn. Los eventos se entregan en orden de emisión,
// de forma síncrona, en el orden de registro.
func (a *AuthClient) OnAuthStateChange(fn ports.AuthListener) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners = append(a.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

func (a *AuthClient) emit(ev ports.AuthEvent, sess *entity.Session) {
	a.mu.Lock()
	ls := make([]ports.AuthListener, len(a.listeners))
	for i, l := range a.listeners {
		ls[i] = l.fn
	}
	a.mu.Unlock()
	for _, fn := range ls {
		fn(ev, sess)
	}
}

// GetSession lee los tokens guardados. Si el access token expiró lo refresca
// (TOKEN_REFRESHED); si está malformado o no se puede refrescar, borra los
// tokens y emite SIGNED_OUT. Solo devuelve error ante fallos de infraestructura.
func (a *AuthClient) GetSession(ctx context.Context) (*entity.Session, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	tokens, err := a.store.Load(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("leer tokens: %w: %v", domain.ErrIdentityUnavailable, err)
	}
	if tokens == nil || tokens.AccessToken == "" {
		return nil, nil
	}

	claims, err := pkgjwt.Parse(a.c.cfg.JWTSecret, tokens.AccessToken)
	if err == nil {
		return sessionFromClaims(tokens, claims), nil
	}
	if !pkgjwt.IsExpired(err) || tokens.RefreshToken == "" {
		a.c.log.Warn().Err(err).Str("sid", a.key).Msg("token guardado inválido, se descarta")
		a.dropLocked(ctx)
		return nil, nil
	}

	resp, err := a.c.refreshGrant(ctx, tokens.RefreshToken)
	if err != nil {
		if clientError(err) {
			a.c.log.Info().Err(err).Str("sid", a.key).Msg("refresh rechazado")
			a.dropLocked(ctx)
			return nil, nil
		}
		return nil, fmt.Errorf("refresh: %w: %v", domain.ErrIdentityUnavailable, err)
	}
	sess := resp.toSession(a.now())
	if err := a.saveLocked(ctx, sess); err != nil {
		return nil, err
	}
	a.emit(ports.EventTokenRefreshed, sess)
	return sess, nil
}

// SignInWithPassword autentica con email y contraseña.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	resp, err := a.c.passwordGrant(ctx, email, password)
	if err != nil {
		if clientError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	sess := resp.toSession(a.now())
	if err := a.saveLocked(ctx, sess); err != nil {
		return nil, err
	}
	a.emit(ports.EventSignedIn, sess)
	return sess, nil
}

// SignOut revoca la sesión remota y borra los tokens locales. Los tokens se
// borran y SIGNED_OUT se emite aunque la llamada remota falle.
func (a *AuthClient) SignOut(ctx context.Context) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	var remoteErr error
	tokens, err := a.store.Load(ctx, a.key)
	if err == nil && tokens != nil && tokens.AccessToken != "" {
		if err := a.c.logout(ctx, tokens.AccessToken); err != nil && !clientError(err) {
			remoteErr = err
		}
	}
	a.dropLocked(ctx)
	return remoteErr
}

func (a *AuthClient) saveLocked(ctx context.Context, sess *entity.Session) error {
	err := a.store.Save(ctx, a.key, entity.TokenSet{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("guardar tokens: %w: %v", domain.ErrIdentityUnavailable, err)
	}
	return nil
}

func (a *AuthClient) dropLocked(ctx context.Context) {
	if err := a.store.Delete(ctx, a.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.c.log.Warn().Err(err).Str("sid", a.key).Msg("borrar tokens")
	}
	a.emit(ports.EventSignedOut, nil)
}

func sessionFromClaims(tokens *entity.TokenSet, c *pkgjwt.Claims) *entity.Session {
	exp := tokens.ExpiresAt
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	return &entity.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    exp,
		User: entity.SessionUser{
			ID:       c.Subject,
			Email:    c.Email,
			Metadata: c.UserMetadata,
		},
	}
}
