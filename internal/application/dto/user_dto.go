package dto

// CreateUserRequest alta de colaborador (solo adm). El cargo debe ser uno del conjunto cerrado.
type CreateUserRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=2,max=100"`
	Email    string `json:"email" form:"email" validate:"omitempty,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
	Cargo    string `json:"cargo" form:"cargo" validate:"required,oneof=adm compras gre colaborador pos-contemplacao financeiro rh"`
}

// UserResponse usuario creado.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Cargo    string `json:"cargo"`
}
