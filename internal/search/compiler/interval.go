package compiler

import (
	"strings"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// Bound es un extremo de un intervalo.
type Bound struct {
	Op    domain.Operator
	Value string
}

// Interval es la forma analizada de un valor de intervalo:
//
//	n       -> = n
//	{a,b}   -> = a OR = b
//	[a      -> >= a        ]a -> > a
//	a]      -> <= a        a[ -> < a
//	[a,b]   -> >= a AND <= b   (cada lado exclusivo con el corchete invertido)
type Interval struct {
	Equal []string
	Low   *Bound
	High  *Bound
}

// ParseInterval analiza un valor de intervalo. Cualquier combinación de
// corchetes no listada arriba es un INVALID_PARAMETER.
func ParseInterval(filter, raw string) (Interval, error) {
	tokens := splitTrim(raw, ",")
	switch len(tokens) {
	case 1:
		return parseSingleBound(filter, tokens[0])
	case 2:
		return parseTwoBounds(filter, tokens[0], tokens[1])
	default:
		return Interval{}, domain.InvalidParameter(filter, "interval %q has more than two values", raw)
	}
}

func parseSingleBound(filter, tok string) (Interval, error) {
	if tok == "" {
		return Interval{}, domain.InvalidParameter(filter, "empty interval")
	}
	first, last := tok[0], tok[len(tok)-1]
	switch {
	case first == '[' || first == ']':
		v := strings.TrimSpace(tok[1:])
		if v == "" {
			return Interval{}, domain.InvalidParameter(filter, "interval %q has no value", tok)
		}
		op := domain.OpGt
		if first == '[' {
			op = domain.OpGte
		}
		return Interval{Low: &Bound{Op: op, Value: v}}, nil
	case last == '[' || last == ']':
		v := strings.TrimSpace(tok[:len(tok)-1])
		if v == "" {
			return Interval{}, domain.InvalidParameter(filter, "interval %q has no value", tok)
		}
		op := domain.OpLt
		if last == ']' {
			op = domain.OpLte
		}
		return Interval{High: &Bound{Op: op, Value: v}}, nil
	case strings.ContainsAny(tok, "{}"):
		return Interval{}, domain.InvalidParameter(filter, "unsupported interval %q", tok)
	}
	return Interval{Equal: []string{tok}}, nil
}

func parseTwoBounds(filter, lowTok, highTok string) (Interval, error) {
	if len(lowTok) < 2 || len(highTok) < 2 {
		return Interval{}, domain.InvalidParameter(filter, "unsupported interval %q", lowTok+","+highTok)
	}
	op1, v1 := lowTok[0], strings.TrimSpace(lowTok[1:])
	op2, v2 := highTok[len(highTok)-1], strings.TrimSpace(highTok[:len(highTok)-1])

	if v1 == "" || v2 == "" {
		return Interval{}, domain.InvalidParameter(filter, "interval %q has empty bounds", lowTok+","+highTok)
	}

	if op1 == '{' && op2 == '}' {
		return Interval{Equal: []string{v1, v2}}, nil
	}

	if (op1 == '[' || op1 == ']') && (op2 == '[' || op2 == ']') {
		low := &Bound{Op: domain.OpGt, Value: v1}
		if op1 == '[' {
			low.Op = domain.OpGte
		}
		high := &Bound{Op: domain.OpLt, Value: v2}
		if op2 == ']' {
			high.Op = domain.OpLte
		}
		return Interval{Low: low, High: high}, nil
	}

	return Interval{}, domain.InvalidParameter(filter, "unsupported interval %q", lowTok+","+highTok)
}

// Predicate convierte el intervalo en comparaciones sobre col.
func (iv Interval) Predicate(col domain.Column) domain.Expr {
	if len(iv.Equal) > 0 {
		items := make([]domain.Expr, len(iv.Equal))
		for i, v := range iv.Equal {
			items[i] = domain.Comparison{Left: col, Op: domain.OpEq, Right: literal(v)}
		}
		return domain.Or(items...)
	}

	var items []domain.Expr
	if iv.Low != nil {
		items = append(items, domain.Comparison{Left: col, Op: iv.Low.Op, Right: literal(iv.Low.Value)})
	}
	if iv.High != nil {
		items = append(items, domain.Comparison{Left: col, Op: iv.High.Op, Right: literal(iv.High.Value)})
	}
	return domain.And(items...)
}
