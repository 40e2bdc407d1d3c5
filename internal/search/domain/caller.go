package domain

import "strconv"

// Grupos reservados.
const (
	GroupAdmin   int64 = 0
	GroupDefault int64 = 100
)

// Caller es la identidad de quien busca, resuelta fuera del compilador.
type Caller struct {
	UserID        int64
	Authenticated bool
	Groups        []int64
}

// Anonymous devuelve un llamante sin autenticar dentro del grupo por defecto.
func Anonymous() Caller {
	return Caller{Groups: []int64{GroupDefault}}
}

// HasGroup indica si el llamante pertenece al grupo.
func (c Caller) HasGroup(group int64) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// VisibilityPolicy produce el predicado de visibilidad del llamante sobre la
// tabla de features; nil significa "sin restricción".
type VisibilityPolicy interface {
	VisibilityPredicate(caller Caller, featureTable string) *Fragment
}

// GroupVisibility restringe por la columna visibility a los grupos del llamante.
// Los miembros de AdminGroup no tienen restricción.
type GroupVisibility struct {
	AdminGroup int64
}

func (g GroupVisibility) VisibilityPredicate(caller Caller, featureTable string) *Fragment {
	if caller.HasGroup(g.AdminGroup) {
		return nil
	}
	groups := caller.Groups
	if len(groups) == 0 {
		groups = []int64{GroupDefault}
	}
	values := make([]Expr, len(groups))
	for i, grp := range groups {
		values[i] = Number{Value: strconv.FormatInt(grp, 10)}
	}
	return &Fragment{
		Predicate: In{Left: Column{Table: featureTable, Name: "visibility"}, Values: values},
	}
}

var _ VisibilityPolicy = GroupVisibility{}
