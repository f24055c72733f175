// Package memory almacenamiento en proceso, para desarrollo y pruebas.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

var _ ports.TokenStorage = (*TokenStore)(nil)

// TokenStore tokens por sesión de navegador en un map. Se pierden al reiniciar.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]entity.TokenSet
}

// NewTokenStore construye el store vacío.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]entity.TokenSet)}
}

func (s *TokenStore) Load(_ context.Context, key string) (*entity.TokenSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[key]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *TokenStore) Save(_ context.Context, key string, tokens entity.TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = tokens
	return nil
}

func (s *TokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
	return nil
}

// Len cantidad de sesiones guardadas.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
