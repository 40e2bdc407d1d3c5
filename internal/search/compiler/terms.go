package compiler

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// splitTerms parte por espacios respetando frases entre comillas dobles.
// Las comillas no forman parte del término.
func splitTerms(s string) []string {
	var (
		terms   []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return terms
}

// splitTrim parte por sep y recorta cada elemento.
func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isNumeric(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// literal devuelve un número sin comillas si el valor lo es, texto escapado si no.
func literal(s string) domain.Expr {
	return domain.Literal(s, isNumeric(s))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalizeDate acepta ISO-8601 / RFC-3339 y sustituye la coma decimal de
// los segundos por un punto, que es lo que entiende PostgreSQL.
func normalizeDate(raw string) (string, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return v, true
		}
	}
	return "", false
}
