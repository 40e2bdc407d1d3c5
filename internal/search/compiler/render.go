package compiler

import (
	"strings"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// RenderOptions controla qué partes del FilterSet se renderizan.
type RenderOptions struct {
	AddGeo  bool // incluir predicados espaciales
	UseSort bool // añadir los predicados de cursor
}

// Render pliega el FilterSet en la cláusula final. Sin predicados sólo
// quedan los joins.
func Render(fs *FilterSet, opts RenderOptions, esc domain.Escaper) domain.Clause {
	if esc == nil {
		esc = domain.PostgresEscaper{}
	}

	clause := domain.Clause{Joins: dedupe(fs.Joins)}

	parts := make([]string, 0, len(fs.Predicates)+len(fs.SortPredicates))
	for _, f := range fs.Predicates {
		if f.Spatial && !opts.AddGeo {
			continue
		}
		parts = append(parts, domain.Render(f.Predicate, esc))
	}
	if opts.UseSort {
		for _, f := range fs.SortPredicates {
			parts = append(parts, domain.Render(f.Predicate, esc))
		}
	}

	clause.Where = strings.Join(parts, " AND ")
	return clause
}

func dedupe(clauses []string) []string {
	seen := make(map[string]struct{}, len(clauses))
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
