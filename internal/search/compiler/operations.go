package compiler

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// minLikePrefix es el mínimo de caracteres significativos antes del '%'.
const minLikePrefix = 3

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// compile despacha al compilador de la operación declarada. Un fragmento nil
// sin error significa que el filtro no aporta predicado.
func (a *Assembler) compile(spec domain.FilterSpec, raw string, params map[string]string) (*domain.Fragment, error) {
	switch spec.Operation {
	case domain.OpCompare:
		e, err := a.compileCompare(spec, raw)
		return fragment(e, false), err
	case domain.OpIn:
		return fragment(a.compileIn(spec, raw), false), nil
	case domain.OpInterval:
		iv, err := ParseInterval(spec.Name, raw)
		if err != nil {
			return nil, err
		}
		return fragment(iv.Predicate(a.column(spec)), false), nil
	case domain.OpKeywords:
		kw, err := ParseKeywords(spec.Name, raw, spec.Prefix)
		if err != nil {
			return nil, err
		}
		if e := kw.Predicate(domain.Column{Table: a.featureTable, Name: spec.Key}); e != nil {
			return fragment(e, false), nil
		}
		return nil, nil
	case domain.OpIntersects:
		e, err := a.compileIntersects(spec, raw)
		return fragment(e, true), err
	case domain.OpDistance:
		pr, ok, err := ParsePointRadius(params)
		if err != nil || !ok {
			return nil, err
		}
		return fragment(distancePredicate(a.geometryColumn(spec), pr, a.opts.UseDistance), true), nil
	case domain.OpLineage:
		e, err := a.compileLineage(spec, raw)
		return fragment(e, false), err
	case domain.OpTimestamp:
		e, err := a.compileTimestamp(spec, raw)
		return fragment(e, false), err
	}
	return nil, domain.InvalidParameter(spec.Name, "operation %q is not supported", spec.Operation)
}

func fragment(e domain.Expr, spatial bool) *domain.Fragment {
	if e == nil {
		return nil
	}
	return &domain.Fragment{Predicate: e, Spatial: spatial}
}

// compileCompare: lista OR separada por '|'. Con operador '=' un '%' final
// convierte el valor en LIKE.
func (a *Assembler) compileCompare(spec domain.FilterSpec, raw string) (domain.Expr, error) {
	col := a.column(spec)
	values := strings.Split(raw, "|")
	items := make([]domain.Expr, 0, len(values))
	for _, v := range values {
		if spec.Numeric && !isNumeric(v) {
			return nil, domain.InvalidParameter(spec.Name, "value %q must be numeric", v)
		}
		if spec.Operator == domain.OpEq && strings.HasSuffix(v, "%") {
			if utf8.RuneCountInString(v)-1 < minLikePrefix {
				return nil, domain.InvalidParameter(spec.Name, "%% is only allowed for strings with %d+ characters", minLikePrefix)
			}
			items = append(items, domain.Comparison{Left: col, Op: domain.OpLike, Right: domain.Text{Value: v}})
			continue
		}
		items = append(items, domain.Comparison{Left: col, Op: spec.Operator, Right: domain.Literal(v, spec.Numeric)})
	}
	return domain.Or(items...), nil
}

// compileIn: un valor se compara con '=', varios con IN. Los elementos
// vacíos (",S2", "S2,") se ignoran.
func (a *Assembler) compileIn(spec domain.FilterSpec, raw string) domain.Expr {
	col := a.column(spec)
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	}
	switch len(values) {
	case 0:
		return nil
	case 1:
		return domain.Comparison{Left: col, Op: domain.OpEq, Right: domain.Literal(values[0], spec.Numeric)}
	}
	items := make([]domain.Expr, len(values))
	for i, v := range values {
		items[i] = domain.Literal(v, spec.Numeric)
	}
	return domain.In{Left: col, Values: items}
}

func (a *Assembler) compileIntersects(spec domain.FilterSpec, raw string) (domain.Expr, error) {
	if spec.Name == domain.FilterBox {
		box, err := ParseBBox(spec.Name, raw)
		if err != nil {
			return nil, err
		}
		return bboxPredicate(a.geometryColumn(spec), box), nil
	}
	g, err := ParseGeometry(spec.Name, raw)
	if err != nil {
		return nil, err
	}
	return stIntersects(a.geometryColumn(spec), g.Expr()), nil
}

// compileLineage: colecciones cuyo linaje contiene el modelo pedido.
func (a *Assembler) compileLineage(spec domain.FilterSpec, raw string) (domain.Expr, error) {
	if a.opts.Models != nil && !a.opts.Models.Has(raw) {
		return nil, domain.UnknownModel(raw)
	}
	return domain.In{
		Left: domain.Column{Table: a.featureTable, Name: spec.Key},
		Values: []domain.Expr{domain.SubSelect{
			Column: "id",
			From:   a.schemaTable("collection"),
			Where: domain.Comparison{
				Left:  domain.Column{Name: "lineage"},
				Op:    domain.OpContains,
				Right: domain.TextArray(raw),
			},
		}},
	}, nil
}

// compileTimestamp compara la columna <key>_idx con timestamp_to_firstid.
func (a *Assembler) compileTimestamp(spec domain.FilterSpec, raw string) (domain.Expr, error) {
	v, ok := normalizeDate(raw)
	if !ok {
		return nil, domain.InvalidParameter(spec.Name, "invalid date %q, expected ISO-8601", raw)
	}
	return domain.Comparison{
		Left:  domain.Column{Table: a.featureTable, Name: strings.ToLower(spec.Key) + "_idx"},
		Op:    spec.Operator,
		Right: domain.Call{Name: "timestamp_to_firstid", Args: []domain.Expr{domain.Text{Value: v}}},
	}, nil
}
