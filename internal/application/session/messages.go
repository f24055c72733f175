package session

import (
	"errors"

	"github.com/jhoicas/portal-interno/internal/domain"
)

// Mensajes que ve el colaborador (el portal está en portugués).
const (
	MsgInvalidCredentials = "Usuário ou senha inválidos."
	MsgInvalidInput       = "Informe usuário e senha."
	MsgInvalidUsername    = "Usuário inválido. Use letras, números, ponto, hífen ou sublinhado, ou informe o email completo."
	MsgUnavailable        = "Não foi possível conectar ao servidor. Tente novamente em instantes."
	MsgGeneric            = "Não foi possível entrar. Tente novamente."
)

// UserMessage traduce el error de Login a un mensaje no vacío para la pantalla.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrInvalidUsername):
		return MsgInvalidUsername
	case errors.Is(err, domain.ErrInvalidInput):
		return MsgInvalidInput
	case errors.Is(err, domain.ErrIdentityUnavailable):
		return MsgUnavailable
	default:
		return MsgGeneric
	}
}
