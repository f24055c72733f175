package access

import "github.com/jhoicas/portal-interno/internal/domain/entity"

// State lo que el guard necesita saber de la sesión.
type State struct {
	IsAuthenticated bool
	IsLoading       bool
	Profile         *entity.Profile
}

// Outcome resultado de evaluar una navegación.
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomePlaceholder
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision resultado del guard. Target solo se usa con OutcomeRedirect.
// Err queda con domain.ErrUnknownRole cuando un cargo desconocido pidió una ruta restringida.
type Decision struct {
	Outcome Outcome
	Target  string
	Route   Route
	Err     error
}

// Evaluate aplica, en este orden: carga, sin sesión, login con sesión, cargo.
func Evaluate(t *Table, p string, st State) Decision {
	route, _ := t.Lookup(p)

	if st.IsLoading {
		return Decision{Outcome: OutcomePlaceholder, Route: route}
	}
	if !st.IsAuthenticated || st.Profile == nil {
		if route.Public() {
			return Decision{Outcome: OutcomeRender, Route: route}
		}
		return Decision{Outcome: OutcomeRedirect, Target: LoginPath, Route: route}
	}
	if route.Kind == KindLogin {
		return Decision{Outcome: OutcomeRedirect, Target: LandingPath, Route: route}
	}
	ok, err := route.Allows(st.Profile.Cargo)
	if !ok {
		return Decision{Outcome: OutcomeRedirect, Target: LandingPath, Route: route, Err: err}
	}
	return Decision{Outcome: OutcomeRender, Route: route}
}
