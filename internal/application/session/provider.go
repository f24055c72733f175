// Package session mantiene el estado de autenticación de una sesión de
// navegador a partir del servicio de identidad.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/access"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// Options configuración del Provider.
type Options struct {
	EmailDomain string        // dominio para expandir usuarios sin "@"
	LoadTimeout time.Duration // límite de la carga inicial; 0 = 10s
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Provider estado de sesión de un navegador. Se construye explícitamente y se
// suscribe a los cambios del AuthClient hasta Close.
type Provider struct {
	client ports.AuthClient
	log    zerolog.Logger
	opts   Options

	mu        sync.RWMutex
	state     access.State
	expiresAt time.Time
	// fresh indica que ya se aplicó un evento o un login; el resultado de la
	// carga inicial llega tarde y se descarta.
	fresh bool

	ready       chan struct{}
	readyOnce   sync.Once
	startOnce   sync.Once
	closeOnce   sync.Once
	unsubscribe func()
}

// NewProvider construye el provider en estado de carga y se suscribe a los
// eventos del cliente. Llamar Start para disparar la carga inicial.
func NewProvider(client ports.AuthClient, log zerolog.Logger, opts Options) *Provider {
	p := &Provider{
		client: client,
		log:    log.With().Str("component", "session").Logger(),
		opts:   opts.withDefaults(),
		state:  access.State{IsLoading: true},
		ready:  make(chan struct{}),
	}
	p.unsubscribe = client.OnAuthStateChange(p.handleEvent)
	return p
}

// Start lanza la carga inicial en segundo plano. Llamadas repetidas no hacen nada.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.load(ctx)
	})
}

func (p *Provider) load(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, p.opts.LoadTimeout)
	defer cancel()

	sess, err := p.client.GetSession(ctx)

	p.mu.Lock()
	if !p.fresh {
		if err != nil {
			// Servicio caído o timeout: se trata como sin sesión.
			p.log.Warn().Err(err).Msg("carga inicial de sesión falló")
			p.clearLocked()
		} else {
			p.applyLocked(sess)
		}
	}
	p.finishLoadingLocked()
	p.mu.Unlock()
}

// finishLoadingLocked cierra el intervalo de carga. Login y Logout lo cierran
// antes que la carga inicial: su resultado ya no se aplicaría.
func (p *Provider) finishLoadingLocked() {
	p.state.IsLoading = false
	p.readyOnce.Do(func() { close(p.ready) })
}

// Ready se cierra cuando termina la carga inicial.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// State lectura síncrona del estado actual. Devuelve una copia.
func (p *Provider) State() access.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.state
	if st.Profile != nil {
		prof := *st.Profile
		st.Profile = &prof
	}
	return st
}

// Login envía las credenciales. En caso de error el estado no cambia y el
// error admite errors.Is contra domain.ErrInvalidCredentials,
// domain.ErrInvalidInput o domain.ErrIdentityUnavailable (ver UserMessage).
func (p *Provider) Login(ctx context.Context, creds Credentials) error {
	email, err := ExpandIdentifier(creds.Identifier, p.opts.EmailDomain)
	if err != nil {
		return err
	}
	if strings.TrimSpace(creds.Password) == "" {
		return fmt.Errorf("contraseña vacía: %w", domain.ErrInvalidInput)
	}

	sess, err := p.client.SignInWithPassword(ctx, email, creds.Password)
	if err != nil {
		ev := p.log.Warn().Err(err).Str("email", email)
		if !errors.Is(err, domain.ErrInvalidCredentials) && !errors.Is(err, domain.ErrIdentityUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
		}
		ev.Msg("login rechazado")
		return err
	}
	if sess == nil {
		return fmt.Errorf("login sin sesión: %w", domain.ErrIdentityUnavailable)
	}

	// Actualización optimista; el evento SIGNED_IN la reconcilia.
	p.mu.Lock()
	p.fresh = true
	p.applyLocked(sess)
	p.finishLoadingLocked()
	profile := p.state.Profile
	p.mu.Unlock()

	if profile != nil {
		p.log.Info().
			Str("user_id", profile.UserID).
			Str("cargo", profile.RawCargo).
			Msg("login")
	}
	return nil
}

// Logout cierra la sesión. El estado queda sin sesión aunque la llamada remota falle.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.client.SignOut(ctx)
	p.mu.Lock()
	p.fresh = true
	p.clearLocked()
	p.finishLoadingLocked()
	p.mu.Unlock()
	if err != nil {
		p.log.Warn().Err(err).Msg("logout remoto falló")
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Revalidate vuelve a pedir la sesión si la actual expiró (el cliente la
// refresca). Si no se puede refrescar queda sin sesión.
func (p *Provider) Revalidate(ctx context.Context) {
	p.mu.RLock()
	expired := p.state.IsAuthenticated && !p.expiresAt.After(p.opts.Now())
	p.mu.RUnlock()
	if !expired {
		return
	}

	sess, err := p.client.GetSession(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fresh = true
	if err != nil {
		p.log.Warn().Err(err).Msg("no se pudo refrescar la sesión")
		p.clearLocked()
		return
	}
	p.applyLocked(sess)
}

// Close cancela la suscripción. Idempotente.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		if p.unsubscribe != nil {
			p.unsubscribe()
		}
	})
}

// handleEvent cada evento reemplaza por completo el estado autenticado.
func (p *Provider) handleEvent(event ports.AuthEvent, sess *entity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fresh = true
	if event == ports.EventSignedOut {
		p.clearLocked()
	} else {
		p.applyLocked(sess)
	}
	p.log.Debug().
		Str("event", string(event)).
		Bool("authenticated", p.state.IsAuthenticated).
		Msg("cambio de sesión")
}

func (p *Provider) applyLocked(sess *entity.Session) {
	if sess.Expired(p.opts.Now()) {
		p.clearLocked()
		return
	}
	prof := entity.ProfileFromUser(sess.User)
	if !prof.Cargo.Valid() {
		p.log.Warn().
			Str("user_id", prof.UserID).
			Str("cargo", prof.RawCargo).
			Err(domain.ErrUnknownRole).
			Msg("sesión con cargo desconocido")
	}
	p.state.IsAuthenticated = true
	p.state.Profile = &prof
	p.expiresAt = sess.ExpiresAt
}

func (p *Provider) clearLocked() {
	p.state.IsAuthenticated = false
	p.state.Profile = nil
	p.expiresAt = time.Time{}
}
