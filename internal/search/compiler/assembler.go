package compiler

import (
	"regexp"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// Options configura un Assembler. Se comparte entre peticiones; el Assembler no.
type Options struct {
	Schema          string
	UseGeometryPart bool
	UseDistance     bool
	Visibility      domain.VisibilityPolicy
	Models          *domain.ModelRegistry
}

// FilterSet es el resultado de Prepare: predicados en orden de inserción
// (visibilidad primero), predicados de cursor y joins sin duplicados.
type FilterSet struct {
	Predicates     []domain.Fragment
	SortPredicates []domain.Fragment
	Joins          []string
}

// Assembler compila los parámetros de UNA petición. Acumula joins, así que
// debe crearse uno nuevo por petición.
type Assembler struct {
	model        *domain.Model
	caller       domain.Caller
	opts         Options
	tablePrefix  string
	featureTable string
	joins        joinSet
}

// NewAssembler es el constructor del ensamblador de filtros.
func NewAssembler(model *domain.Model, caller domain.Caller, opts Options) *Assembler {
	prefix := model.TablePrefix
	if opts.Schema != "" {
		prefix = opts.Schema + "." + model.TablePrefix
	}
	return &Assembler{
		model:        model,
		caller:       caller,
		opts:         opts,
		tablePrefix:  prefix,
		featureTable: prefix + "feature",
	}
}

// FeatureTable devuelve la tabla principal cualificada.
func (a *Assembler) FeatureTable() string {
	return a.featureTable
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Prepare valida y compila los parámetros de la petición. La primera
// violación aborta la construcción completa.
func (a *Assembler) Prepare(params map[string]string, sortKey string) (*FilterSet, error) {
	if sortKey != "" && !identifierRe.MatchString(sortKey) {
		return nil, domain.InvalidParameter(domain.FilterSort, "invalid sort key %q", sortKey)
	}

	specs := a.model.Catalog.Specs()

	// 1. Filtros obligatorios
	var missing []string
	for _, spec := range specs {
		if !spec.Mandatory() {
			continue
		}
		if _, ok := params[spec.Name]; !ok {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.MissingMandatory(missing...)
	}

	// 2. intersects y bbox son excluyentes
	_, hasGeometry := params[domain.FilterGeometry]
	_, hasBox := params[domain.FilterBox]
	if hasGeometry && hasBox {
		return nil, domain.InvalidParameter(domain.FilterGeometry, "only one of intersects or bbox is allowed")
	}

	fs := &FilterSet{}

	// 3. Visibilidad contextual, siempre primero
	if a.opts.Visibility != nil {
		if frag := a.opts.Visibility.VisibilityPredicate(a.caller, a.featureTable); frag != nil {
			fs.Predicates = append(fs.Predicates, *frag)
		}
	}

	// 4. Un predicado por filtro presente, en el orden del catálogo
	for _, spec := range specs {
		raw, ok := params[spec.Name]
		if !ok || raw == "" {
			continue
		}

		switch {
		case sortKey != "" && domain.IsSortFilter(spec.Name):
			fs.SortPredicates = append(fs.SortPredicates, a.sortPredicate(spec, sortKey, raw))

		case spec.Name == domain.FilterOwner && !isDigits(raw):
			frag, err := a.ownerShorthand(spec, raw)
			if err != nil {
				return nil, err
			}
			fs.Predicates = append(fs.Predicates, frag)

		case !domain.IsExcluded(spec.Name) && spec.Compilable():
			frag, err := a.compile(spec, raw, params)
			if err != nil {
				return nil, err
			}
			if frag != nil {
				fs.Predicates = append(fs.Predicates, *frag)
			}
		}
	}

	fs.Joins = a.joins.list()
	return fs, nil
}

func (a *Assembler) sortPredicate(spec domain.FilterSpec, sortKey, raw string) domain.Fragment {
	return domain.Fragment{Predicate: domain.Comparison{
		Left:  domain.Column{Table: a.featureTable, Name: sortKey},
		Op:    spec.Operator,
		Right: domain.Text{Value: raw},
	}}
}

// ownerShorthand: "f" = usuarios seguidos por el llamante, "F" = seguidos o
// el propio llamante.
func (a *Assembler) ownerShorthand(spec domain.FilterSpec, raw string) (domain.Fragment, error) {
	if !a.caller.Authenticated {
		return domain.Fragment{}, domain.PermissionDenied(spec.Name, "following filters require an authenticated user")
	}

	col := domain.Column{Table: a.featureTable, Name: spec.Key}
	me := domain.Number{Value: formatInt(a.caller.UserID)}
	followed := domain.In{Left: col, Values: []domain.Expr{domain.SubSelect{
		Column: "userid",
		From:   a.schemaTable("follower"),
		Where:  domain.Comparison{Left: domain.Column{Name: "followerid"}, Op: domain.OpEq, Right: me},
	}}}

	switch raw {
	case "f":
		return domain.Fragment{Predicate: followed}, nil
	case "F":
		return domain.Fragment{Predicate: domain.Or(
			domain.Comparison{Left: col, Op: domain.OpEq, Right: me},
			followed,
		)}, nil
	}
	return domain.Fragment{}, domain.InvalidParameter(spec.Name, "owner must be a user id, 'f' or 'F'")
}

// schemaTable cualifica una tabla global (sin prefijo de modelo).
func (a *Assembler) schemaTable(name string) string {
	if a.opts.Schema == "" {
		return name
	}
	return a.opts.Schema + "." + name
}
