package ports

import (
	"context"

	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// AuthEvent tipo de cambio de sesión emitido por el servicio de identidad.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthListener recibe (evento, sesión). La sesión es nil en SIGNED_OUT.
type AuthListener func(event AuthEvent, session *entity.Session)

// AuthClient puerto de salida hacia el servicio de identidad, ligado a una
// sesión de navegador (su almacenamiento de tokens).
// Los listeners se invocan en el orden en que se emiten los eventos.
type AuthClient interface {
	// GetSession devuelve la sesión persistida (refrescándola si expiró) o nil.
	GetSession(ctx context.Context) (*entity.Session, error)
	// SignInWithPassword devuelve domain.ErrInvalidCredentials o
	// domain.ErrIdentityUnavailable al fallar.
	SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registra un listener; la función devuelta lo elimina.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// CreateUserInput alta administrativa de un colaborador.
type CreateUserInput struct {
	Email    string
	Password string
	Username string
	Cargo    entity.Role
}

// AdminService operaciones privilegiadas del servicio de identidad.
type AdminService interface {
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	CreateUser(ctx context.Context, in CreateUserInput) (*entity.SessionUser, error)
}

// TokenStorage persistencia de tokens por sesión de navegador.
// Load devuelve (nil, nil) si no hay tokens para la clave.
type TokenStorage interface {
	Load(ctx context.Context, key string) (*entity.TokenSet, error)
	Save(ctx context.Context, key string, tokens entity.TokenSet) error
	Delete(ctx context.Context, key string) error
}
