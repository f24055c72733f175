// Package access contiene la tabla declarativa de rutas del portal y la única
// función de autorización que la consume.
package access

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// Rutas fijas del portal.
const (
	LoginPath   = "/"
	LandingPath = "/hub"
)

// Kind clasificación de una ruta.
type Kind int

const (
	// KindAuthenticated cualquier cargo autenticado puede verla.
	KindAuthenticated Kind = iota
	// KindPublic accesible sin sesión.
	KindPublic
	// KindLogin página de login: pública, y redirige al hub si ya hay sesión.
	KindLogin
	// KindRestricted solo los cargos listados en Roles.
	KindRestricted
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindPublic:
		return "public"
	case KindLogin:
		return "login"
	case KindRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Route entrada de la tabla.
type Route struct {
	Path    string
	Title   string
	Kind    Kind
	Roles   []entity.Role // solo para KindRestricted
	Subtree bool          // también aplica a rutas anidadas (/x/...)
	InHub   bool          // aparece como tarjeta en el hub
}

// Public informa si la ruta se puede ver sin sesión.
func (r Route) Public() bool {
	return r.Kind == KindPublic || r.Kind == KindLogin
}

// AdminOnly informa si la ruta está restringida únicamente a adm.
func (r Route) AdminOnly() bool {
	return r.Kind == KindRestricted && len(r.Roles) == 1 && r.Roles[0] == entity.RoleAdm
}

// Allows decide si el cargo puede ver la ruta (asumiendo sesión válida).
// Un cargo fuera del conjunto en una ruta restringida devuelve ErrUnknownRole.
func (r Route) Allows(role entity.Role) (bool, error) {
	if r.Kind != KindRestricted {
		return true, nil
	}
	if !role.Valid() {
		return false, fmt.Errorf("ruta %s: %w", r.Path, domain.ErrUnknownRole)
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true, nil
		}
	}
	return false, nil
}

// Table tabla de rutas, inmutable después de NewTable.
type Table struct {
	exact    map[string]Route
	subtrees []Route // ordenadas de la más larga a la más corta
	ordered  []Route
}

// NewTable valida y construye la tabla.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{exact: make(map[string]Route, len(routes))}
	for _, r := range routes {
		r.Path = Normalize(r.Path)
		if _, dup := t.exact[r.Path]; dup {
			return nil, fmt.Errorf("access: ruta duplicada %s: %w", r.Path, domain.ErrConflict)
		}
		if r.Kind == KindRestricted && len(r.Roles) == 0 {
			return nil, fmt.Errorf("access: ruta %s restringida sin cargos: %w", r.Path, domain.ErrInvalidInput)
		}
		for _, role := range r.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("access: ruta %s cargo %q: %w", r.Path, role, domain.ErrUnknownRole)
			}
		}
		t.exact[r.Path] = r
		t.ordered = append(t.ordered, r)
		if r.Subtree {
			t.subtrees = append(t.subtrees, r)
		}
	}
	sort.SliceStable(t.subtrees, func(i, j int) bool {
		return len(t.subtrees[i].Path) > len(t.subtrees[j].Path)
	})
	return t, nil
}

// MustTable como NewTable pero hace panic; para tablas fijas en compilación.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup clasifica el path. Si no hay entrada devuelve una ruta
// KindAuthenticated y found=false.
func (t *Table) Lookup(p string) (route Route, found bool) {
	p = Normalize(p)
	if r, ok := t.exact[p]; ok {
		return r, true
	}
	for _, r := range t.subtrees {
		if r.Path != "/" && strings.HasPrefix(p, r.Path+"/") {
			return r, true
		}
	}
	return Route{Path: p, Kind: KindAuthenticated}, false
}

// Routes devuelve las rutas en el orden de declaración.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Visible rutas del hub que el cargo puede abrir.
func (t *Table) Visible(role entity.Role) []Route {
	var out []Route
	for _, r := range t.ordered {
		if !r.InHub {
			continue
		}
		if ok, _ := r.Allows(role); ok {
			out = append(out, r)
		}
	}
	return out
}

// Normalize limpia el path: sin barra final, sin dobles barras, sin "..".
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// DefaultTable tabla del portal. Todas las reglas de cargo viven aquí.
func DefaultTable() *Table {
	return MustTable(
		Route{Path: LoginPath, Title: "Login", Kind: KindLogin},
		Route{Path: "/login", Title: "Login", Kind: KindLogin},
		Route{Path: "/esqueci-senha", Title: "Esqueci minha senha", Kind: KindPublic},
		Route{Path: "/redefinir-senha", Title: "Redefinir senha", Kind: KindPublic},
		Route{Path: LandingPath, Title: "Hub", Kind: KindAuthenticated},

		Route{Path: "/suporte-gre/minhas-solicitacoes", Title: "Minhas solicitações de suporte", Kind: KindAuthenticated, Subtree: true, InHub: true},
		Route{Path: "/suporte-gre/painel", Title: "Painel de suporte GRE", Kind: KindRestricted,
			Roles: []entity.Role{entity.RoleAdm, entity.RoleGRE}, Subtree: true, InHub: true},
		Route{Path: "/compras/minhas-solicitacoes", Title: "Minhas solicitações de compra", Kind: KindAuthenticated, Subtree: true, InHub: true},
		Route{Path: "/compras/painel", Title: "Painel de compras", Kind: KindRestricted,
			Roles: []entity.Role{entity.RoleAdm, entity.RoleCompras}, Subtree: true, InHub: true},
		Route{Path: "/pos-contemplacao", Title: "Chamados pós-contemplação", Kind: KindRestricted,
			Roles: []entity.Role{entity.RoleAdm, entity.RolePosContemplacao, entity.RoleFinanceiro}, Subtree: true, InHub: true},
		Route{Path: "/rankings", Title: "Rankings", Kind: KindAuthenticated, InHub: true},
		Route{Path: "/mural", Title: "Mural de avisos", Kind: KindAuthenticated, InHub: true},

		Route{Path: "/dashboard", Title: "Dashboard", Kind: KindRestricted, Roles: []entity.Role{entity.RoleAdm}, InHub: true},
		Route{Path: "/usuarios", Title: "Usuários", Kind: KindRestricted, Roles: []entity.Role{entity.RoleAdm}, Subtree: true, InHub: true},
		Route{Path: "/configuracoes", Title: "Configurações", Kind: KindRestricted, Roles: []entity.Role{entity.RoleAdm}, Subtree: true, InHub: true},
	)
}
