package session

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/ports"
)

// ClientFactory crea el AuthClient ligado a una sesión de navegador.
type ClientFactory func(sid string) ports.AuthClient

// Manager un Provider por sesión de navegador, acotado por un LRU.
// Los providers expulsados se cierran.
type Manager struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *Provider]
	factory ClientFactory
	opts    Options
	base    zerolog.Logger
	log     zerolog.Logger
}

// NewManager construye el manager. size es el máximo de sesiones en memoria.
func NewManager(factory ClientFactory, size int, opts Options, log zerolog.Logger) (*Manager, error) {
	if factory == nil {
		return nil, fmt.Errorf("session: factory es obligatoria")
	}
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.NewWithEvict(size, func(sid string, p *Provider) {
		p.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("session: crear cache: %w", err)
	}
	return &Manager{
		cache:   cache,
		factory: factory,
		opts:    opts,
		base:    log,
		log:     log.With().Str("component", "session_manager").Logger(),
	}, nil
}

// Get devuelve el provider de sid, creándolo e iniciando la carga si no existe.
func (m *Manager) Get(sid string) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.cache.Get(sid); ok {
		return p
	}
	p := NewProvider(m.factory(sid), m.base, m.opts)
	m.cache.Add(sid, p)
	p.Start(context.Background())
	m.log.Debug().Int("sessions", m.cache.Len()).Msg("provider creado")
	return p
}

// Forget cierra y descarta el provider de sid.
func (m *Manager) Forget(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(sid)
}

// Len sesiones en memoria.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Close cierra todos los providers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
}
