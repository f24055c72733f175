package entity

import "strings"

// Profile datos del colaborador derivados de la metadata de la sesión.
type Profile struct {
	UserID   string
	Username string
	Email    string // siempre en minúsculas
	Cargo    Role   // RoleUnknown si la metadata trae un cargo fuera del conjunto
	RawCargo string // valor original de la metadata, para logs
}

// Metadata claves de user_metadata que usa el portal.
const (
	MetadataUsername = "username"
	MetadataCargo    = "cargo"
	MetadataEmail    = "email"
)

// ProfileFromUser deriva el perfil. No falla con cargos desconocidos: los deja
// como RoleUnknown y la autorización los rechaza de forma explícita.
func ProfileFromUser(u SessionUser) Profile {
	raw := metadataString(u.Metadata, MetadataCargo)
	role, _ := ParseRole(raw)

	email := u.Email
	if email == "" {
		email = metadataString(u.Metadata, MetadataEmail)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	username := metadataString(u.Metadata, MetadataUsername)
	if username == "" {
		if i := strings.IndexByte(email, '@'); i > 0 {
			username = email[:i]
		}
	}

	return Profile{
		UserID:   u.ID,
		Username: username,
		Email:    email,
		Cargo:    role,
		RawCargo: raw,
	}
}

func metadataString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
