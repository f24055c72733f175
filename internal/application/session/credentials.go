package session

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/portal-interno/internal/domain"
)

// Credentials lo que el colaborador escribe en el formulario de login.
// Identifier puede ser un usuario ("joao.silva") o un email completo.
type Credentials struct {
	Identifier string
	Password   string
}

// ErrInvalidUsername el usuario tiene caracteres fuera de [a-z0-9._-].
var ErrInvalidUsername = fmt.Errorf("usuario inválido: %w", domain.ErrInvalidInput)

// ExpandIdentifier devuelve el email que se envía al servicio de identidad.
// Un email se usa tal cual (solo sin espacios alrededor); un usuario se
// normaliza (sin acentos, espacios como punto) y se completa con emailDomain.
func ExpandIdentifier(identifier, emailDomain string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("identificador vacío: %w", domain.ErrInvalidInput)
	}
	if strings.Contains(id, "@") {
		return id, nil
	}
	if emailDomain == "" {
		return "", fmt.Errorf("usuario %q sin dominio configurado: %w", id, domain.ErrInvalidInput)
	}
	username, err := NormalizeUsername(id)
	if err != nil {
		return "", err
	}
	return username + "@" + strings.TrimPrefix(strings.ToLower(emailDomain), "@"), nil
}

// NormalizeUsername "João  Silva" -> "joao.silva".
func NormalizeUsername(raw string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", fmt.Errorf("normalizar usuario: %w", err)
	}
	s = strings.Join(strings.Fields(s), ".")
	if s == "" {
		return "", fmt.Errorf("usuario vacío: %w", domain.ErrInvalidInput)
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-') {
			return "", fmt.Errorf("%q contiene %q: %w", s, r, ErrInvalidUsername)
		}
	}
	return s, nil
}
