package domain

import (
	"strings"
)

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq       Operator = "="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpLike     Operator = "LIKE"
	OpOverlap  Operator = "&&"
	OpContains Operator = "@>"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// SRID de todas las geometrías de entrada.
const SRID = "4326"

// ---------------- Expr ----------------

// Expr es un nodo del árbol de predicados. Los nodos sólo guardan datos;
// los literales se escapan al renderizar, nunca antes.
type Expr interface {
	Render(w *strings.Builder, esc Escaper)
}

// Render serializa una expresión completa.
func Render(e Expr, esc Escaper) string {
	var b strings.Builder
	e.Render(&b, esc)
	return b.String()
}

// Column es un identificador de columna, opcionalmente cualificado por tabla.
// Los identificadores provienen del catálogo, nunca de la petición.
type Column struct {
	Table string
	Name  string
}

func (c Column) Render(w *strings.Builder, _ Escaper) {
	if c.Table != "" {
		w.WriteString(c.Table)
		w.WriteByte('.')
	}
	w.WriteString(c.Name)
}

// Text es un literal de texto entre comillas simples.
type Text struct {
	Value string
}

func (t Text) Render(w *strings.Builder, esc Escaper) {
	w.WriteByte('\'')
	w.WriteString(esc.Escape(t.Value))
	w.WriteByte('\'')
}

// Number es un literal numérico ya validado; se escribe sin comillas.
type Number struct {
	Value string
}

func (n Number) Render(w *strings.Builder, esc Escaper) {
	w.WriteString(esc.Escape(n.Value))
}

// Literal elige entre Number y Text.
func Literal(value string, numeric bool) Expr {
	if numeric {
		return Number{Value: value}
	}
	return Text{Value: value}
}

// Call es una llamada a función SQL: name(arg1, arg2).
type Call struct {
	Name string
	Args []Expr
}

func (c Call) Render(w *strings.Builder, esc Escaper) {
	w.WriteString(c.Name)
	w.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		a.Render(w, esc)
	}
	w.WriteByte(')')
}

// Array es un constructor ARRAY[...].
type Array struct {
	Items []Expr
}

func (a Array) Render(w *strings.Builder, esc Escaper) {
	w.WriteString("ARRAY[")
	for i, it := range a.Items {
		if i > 0 {
			w.WriteByte(',')
		}
		it.Render(w, esc)
	}
	w.WriteByte(']')
}

// TextArray construye un ARRAY de literales de texto.
func TextArray(values ...string) Array {
	items := make([]Expr, len(values))
	for i, v := range values {
		items[i] = Text{Value: v}
	}
	return Array{Items: items}
}

// Comparison es "left op right".
type Comparison struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (c Comparison) Render(w *strings.Builder, esc Escaper) {
	c.Left.Render(w, esc)
	w.WriteByte(' ')
	w.WriteString(string(c.Op))
	w.WriteByte(' ')
	c.Right.Render(w, esc)
}

// In es "left IN (v1,v2,...)".
type In struct {
	Left   Expr
	Values []Expr
}

func (in In) Render(w *strings.Builder, esc Escaper) {
	in.Left.Render(w, esc)
	w.WriteString(" IN (")
	for i, v := range in.Values {
		if i > 0 {
			w.WriteByte(',')
		}
		v.Render(w, esc)
	}
	w.WriteByte(')')
}

// SubSelect es "SELECT column FROM from WHERE where", usado dentro de In.
type SubSelect struct {
	Column string
	From   string
	Where  Expr
}

func (s SubSelect) Render(w *strings.Builder, esc Escaper) {
	w.WriteString("SELECT ")
	w.WriteString(s.Column)
	w.WriteString(" FROM ")
	w.WriteString(s.From)
	if s.Where != nil {
		w.WriteString(" WHERE ")
		s.Where.Render(w, esc)
	}
}

// Not niega la expresión hija.
type Not struct {
	Item Expr
}

func (n Not) Render(w *strings.Builder, esc Escaper) {
	w.WriteString("NOT ")
	n.Item.Render(w, esc)
}

// Group envuelve la expresión hija entre paréntesis.
type Group struct {
	Item Expr
}

func (g Group) Render(w *strings.Builder, esc Escaper) {
	w.WriteByte('(')
	g.Item.Render(w, esc)
	w.WriteByte(')')
}

// ---------------- Composite ----------------

// Composite une expresiones con AND u OR.
type Composite struct {
	Operator LogicalOperator
	Items    []Expr
	Grouped  bool
}

func (c Composite) Render(w *strings.Builder, esc Escaper) {
	if c.Grouped {
		w.WriteByte('(')
	}
	sep := " " + string(c.Operator) + " "
	for i, it := range c.Items {
		if i > 0 {
			w.WriteString(sep)
		}
		it.Render(w, esc)
	}
	if c.Grouped {
		w.WriteByte(')')
	}
}

// And crea un Composite AND sin paréntesis. Un único elemento se devuelve tal cual.
func And(items ...Expr) Expr {
	if len(items) == 1 {
		return items[0]
	}
	return Composite{Operator: OpAnd, Items: items}
}

// Or crea un Composite OR entre paréntesis. Un único elemento se devuelve tal cual.
func Or(items ...Expr) Expr {
	if len(items) == 1 {
		return items[0]
	}
	return Composite{Operator: OpOr, Items: items, Grouped: true}
}

// ---------------- Fragment ----------------

// Fragment es un predicado ya compilado. Spatial marca los derivados de
// geometría o distancia, que el renderizador puede omitir.
type Fragment struct {
	Predicate Expr
	Spatial   bool
}
