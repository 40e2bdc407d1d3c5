package compiler

import (
	"strings"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// KeywordTerm es un término de búsqueda ya separado:
// Group OR  -> a|b|c   (solapamiento de arrays)
// Group AND -> a,b,c   (contención de arrays)
// Group ""  -> término suelto, se fusiona con el resto de sueltos.
type KeywordTerm struct {
	Values  []string
	Exclude bool
	Group   domain.LogicalOperator
}

// KeywordExpr es la lista ordenada de términos de un valor de keywords.
type KeywordExpr []KeywordTerm

// ParseKeywords separa el valor en términos. "#" incluye y "-#" excluye;
// el prefijo declarado se antepone a cada sub-valor como "prefix:valor".
// El flag de exclusión es propio de cada término.
func ParseKeywords(filter, raw, prefix string) (KeywordExpr, error) {
	var expr KeywordExpr
	for _, term := range splitTerms(raw) {
		exclude := false
		switch {
		case strings.HasPrefix(term, "-#"):
			exclude = true
			term = strings.TrimLeft(term[1:], "#")
		case strings.HasPrefix(term, "#"):
			term = strings.TrimLeft(term, "#")
		}

		var group domain.LogicalOperator
		values := []string{term}
		if strings.Contains(term, "|") {
			group, values = domain.OpOr, splitTrim(term, "|")
		} else if strings.Contains(term, ",") {
			group, values = domain.OpAnd, splitTrim(term, ",")
		}

		kept := values[:0]
		for _, v := range values {
			v = strings.TrimLeft(v, "#")
			if v == "" {
				continue
			}
			if err := checkKeywordStructure(filter, v); err != nil {
				return nil, err
			}
			if prefix != "" {
				v = prefix + domain.TagSeparator + v
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			continue
		}
		if len(kept) == 1 {
			group = ""
		}
		expr = append(expr, KeywordTerm{Values: kept, Exclude: exclude, Group: group})
	}
	return expr, nil
}

// checkKeywordStructure rechaza "type:value" con tipo o valor vacío.
func checkKeywordStructure(filter, v string) error {
	i := strings.Index(v, domain.TagSeparator)
	if i < 0 {
		return nil
	}
	if i == 0 || i == len(v)-len(domain.TagSeparator) {
		return domain.InvalidParameter(filter, "invalid keyword structure %q", v)
	}
	return nil
}

func normalizeArray(values []string) domain.Expr {
	return domain.Call{Name: "normalize_array", Args: []domain.Expr{domain.TextArray(values...)}}
}

// Predicate compila la expresión contra la columna de hashtags. Devuelve nil
// si no queda ningún término.
func (k KeywordExpr) Predicate(col domain.Column) domain.Expr {
	var (
		items         []domain.Expr
		with, without []string
	)
	for _, t := range k {
		if t.Group == "" {
			if t.Exclude {
				without = append(without, t.Values...)
			} else {
				with = append(with, t.Values...)
			}
			continue
		}

		op := domain.OpContains
		if t.Group == domain.OpOr {
			op = domain.OpOverlap
		}
		var e domain.Expr = domain.Group{Item: domain.Comparison{Left: col, Op: op, Right: normalizeArray(t.Values)}}
		if t.Exclude {
			e = domain.Not{Item: e}
		}
		items = append(items, e)
	}

	if len(without) > 0 {
		items = append(items, domain.Not{Item: domain.Comparison{Left: col, Op: domain.OpContains, Right: normalizeArray(without)}})
	}
	if len(with) > 0 {
		items = append(items, domain.Comparison{Left: col, Op: domain.OpContains, Right: normalizeArray(with)})
	}

	if len(items) == 0 {
		return nil
	}
	return domain.And(items...)
}
