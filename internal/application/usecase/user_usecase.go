package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/application/dto"
	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// UserUseCase alta de colaboradores y redefinición de contraseña sobre el
// servicio de identidad.
type UserUseCase struct {
	admin       ports.AdminService
	emailDomain string
	resetURL    string // destino del enlace del email de redefinición
	log         zerolog.Logger
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(admin ports.AdminService, emailDomain, resetURL string, log zerolog.Logger) *UserUseCase {
	return &UserUseCase{
		admin:       admin,
		emailDomain: emailDomain,
		resetURL:    resetURL,
		log:         log.With().Str("component", "users").Logger(),
	}
}

// CreateUser valida el cargo, deriva el email si no viene y crea el usuario.
// Devuelve domain.ErrConflict si el email ya existe.
func (uc *UserUseCase) CreateUser(ctx context.Context, createdBy string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	cargo, err := entity.ParseRole(in.Cargo)
	if err != nil {
		return nil, err
	}
	username, err := session.NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		email, err = session.ExpandIdentifier(username, uc.emailDomain)
		if err != nil {
			return nil, err
		}
	}

	u, err := uc.admin.CreateUser(ctx, ports.CreateUserInput{
		Email:    email,
		Password: in.Password,
		Username: username,
		Cargo:    cargo,
	})
	if err != nil {
		return nil, fmt.Errorf("crear usuario %s: %w", email, err)
	}

	uc.log.Info().
		Str("created_by", createdBy).
		Str("user_id", u.ID).
		Str("cargo", string(cargo)).
		Msg("usuario creado")

	return &dto.UserResponse{ID: u.ID, Username: username, Email: u.Email, Cargo: string(cargo)}, nil
}

// RequestPasswordReset acepta usuario o email. No revela si la cuenta existe.
func (uc *UserUseCase) RequestPasswordReset(ctx context.Context, identifier string) error {
	email, err := session.ExpandIdentifier(identifier, uc.emailDomain)
	if err != nil {
		return err
	}
	if err := uc.admin.ResetPasswordForEmail(ctx, email, uc.resetURL); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			uc.log.Info().Err(err).Msg("recover rechazado")
			return nil
		}
		return err
	}
	return nil
}
