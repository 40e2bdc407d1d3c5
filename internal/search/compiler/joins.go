package compiler

import (
	"github.com/davicafu/stacsearch/internal/search/domain"
)

// geometryPartTable guarda las geometrías grandes troceadas.
const geometryPartTable = "geometry_part"

// joinSet acumula cláusulas JOIN sin duplicados, en orden de inserción.
type joinSet struct {
	clauses []string
	seen    map[string]struct{}
}

func (j *joinSet) add(clause string) {
	if j.seen == nil {
		j.seen = make(map[string]struct{})
	}
	if _, ok := j.seen[clause]; ok {
		return
	}
	j.seen[clause] = struct{}{}
	j.clauses = append(j.clauses, clause)
}

func (j *joinSet) list() []string {
	out := make([]string, len(j.clauses))
	copy(out, j.clauses)
	return out
}

// qualify antepone schema y prefijo de modelo al nombre de tabla.
func (a *Assembler) qualify(table string) string {
	return a.tablePrefix + table
}

func (a *Assembler) join(table string) string {
	qualified := a.qualify(table)
	a.joins.add("JOIN " + qualified + " ON " + a.featureTable + ".id=" + qualified + ".id")
	return qualified
}

// resolveTable devuelve la tabla que contiene la columna del filtro y, si no
// es la de features, registra el JOIN correspondiente.
func (a *Assembler) resolveTable(spec domain.FilterSpec) string {
	for _, t := range a.model.Tables {
		if t.HasColumn(spec.Key) {
			return a.join(t.Name)
		}
	}
	return a.featureTable
}

// geometryTable devuelve geometry_part (con su JOIN) si está configurado.
func (a *Assembler) geometryTable() string {
	if a.opts.UseGeometryPart {
		return a.join(geometryPartTable)
	}
	return a.featureTable
}

func (a *Assembler) column(spec domain.FilterSpec) domain.Column {
	return domain.Column{Table: a.resolveTable(spec), Name: spec.Key}
}

func (a *Assembler) geometryColumn(spec domain.FilterSpec) domain.Column {
	return domain.Column{Table: a.geometryTable(), Name: spec.Key}
}
