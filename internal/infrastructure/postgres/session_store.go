package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

var _ ports.TokenStorage = (*SessionStore)(nil)

//go:embed migrations/001_portal_auth_sessions.sql
var sessionsSchema string

// SessionStore implementación de ports.TokenStorage sobre la tabla portal_auth_sessions.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore construye el adaptador.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// EnsureSchema crea la tabla si no existe.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sessionsSchema); err != nil {
		return fmt.Errorf("crear portal_auth_sessions: %w", err)
	}
	return nil
}

// Load devuelve (nil, nil) si la sesión no tiene tokens.
func (s *SessionStore) Load(ctx context.Context, key string) (*entity.TokenSet, error) {
	query := `
		SELECT access_token, refresh_token, expires_at
		FROM portal_auth_sessions WHERE sid = $1`
	var t entity.TokenSet
	err := s.pool.QueryRow(ctx, query, key).Scan(&t.AccessToken, &t.RefreshToken, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth session: %w", err)
	}
	return &t, nil
}

// Save inserta o reemplaza los tokens de la sesión.
func (s *SessionStore) Save(ctx context.Context, key string, tokens entity.TokenSet) error {
	query := `
		INSERT INTO portal_auth_sessions (sid, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (sid) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`
	if _, err := s.pool.Exec(ctx, query, key, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt); err != nil {
		return fmt.Errorf("upsert auth session: %w", err)
	}
	return nil
}

// Delete borra los tokens; no falla si no existían.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM portal_auth_sessions WHERE sid = $1`, key); err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

// PurgeStale borra sesiones sin actividad desde before. Devuelve cuántas borró.
func (s *SessionStore) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM portal_auth_sessions WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge auth sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
