package entity

import (
	"fmt"
	"strings"

	"github.com/jhoicas/portal-interno/internal/domain"
)

// Role es el cargo del colaborador. El conjunto es cerrado: cualquier valor
// fuera de la lista se rechaza con domain.ErrUnknownRole.
type Role string

// Cargos válidos del portal.
const (
	RoleUnknown         Role = ""
	RoleAdm             Role = "adm"
	RoleCompras         Role = "compras"
	RoleGRE             Role = "gre"
	RoleColaborador     Role = "colaborador"
	RolePosContemplacao Role = "pos-contemplacao"
	RoleFinanceiro      Role = "financeiro"
	RoleRH              Role = "rh"
)

// AllRoles devuelve todos los cargos conocidos, en orden estable.
func AllRoles() []Role {
	return []Role{
		RoleAdm,
		RoleCompras,
		RoleGRE,
		RoleColaborador,
		RolePosContemplacao,
		RoleFinanceiro,
		RoleRH,
	}
}

// Valid informa si el cargo pertenece al conjunto cerrado.
func (r Role) Valid() bool {
	switch r {
	case RoleAdm, RoleCompras, RoleGRE, RoleColaborador,
		RolePosContemplacao, RoleFinanceiro, RoleRH:
		return true
	case RoleUnknown:
		return false
	default:
		return false
	}
}

// Label nombre para mostrar en las páginas.
func (r Role) Label() string {
	switch r {
	case RoleAdm:
		return "Administrador"
	case RoleCompras:
		return "Compras"
	case RoleGRE:
		return "GRE"
	case RoleColaborador:
		return "Colaborador"
	case RolePosContemplacao:
		return "Pós-contemplação"
	case RoleFinanceiro:
		return "Financeiro"
	case RoleRH:
		return "RH"
	default:
		return "Desconhecido"
	}
}

// ParseRole convierte el texto de metadata en Role.
// Acepta mayúsculas, espacios y guion bajo ("Pos_Contemplacao" == "pos-contemplacao").
func ParseRole(raw string) (Role, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	r := Role(s)
	if !r.Valid() {
		return RoleUnknown, fmt.Errorf("%w: %q", domain.ErrUnknownRole, raw)
	}
	return r, nil
}
