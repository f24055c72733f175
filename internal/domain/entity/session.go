package entity

import "time"

// SessionUser usuario adjunto a la sesión del servicio de identidad.
type SessionUser struct {
	ID       string
	Email    string
	Metadata map[string]any // user_metadata
}

// Session prueba de autenticación emitida por el servicio de identidad.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         SessionUser
}

// Expired informa si el access token ya no es válido en now.
// Una sesión nil se considera expirada.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	return !s.ExpiresAt.After(now)
}

// TokenSet lo que se persiste por sesión de navegador.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
