package dto

// LoginRequest formulario de login: usuario o email más contraseña.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required,max=254"`
	Password   string `json:"password" form:"password" validate:"required,max=200"`
}

// ProfileResponse perfil visible del colaborador.
type ProfileResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Cargo    string `json:"cargo"`
}

// SessionResponse estado de sesión para el frontend.
type SessionResponse struct {
	IsAuthenticated bool             `json:"is_authenticated"`
	IsLoading       bool             `json:"is_loading"`
	Profile         *ProfileResponse `json:"profile,omitempty"`
	Redirect        string           `json:"redirect,omitempty"`
}

// RecoverRequest pedido de redefinición de contraseña.
type RecoverRequest struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required,max=254"`
}
