package domain

import "strings"

// Escaper neutraliza caracteres de comillas y control de un literal.
type Escaper interface {
	Escape(raw string) string
}

// PostgresEscaper escapa literales para strings estándar de PostgreSQL
// (standard_conforming_strings=on): duplica la comilla simple y elimina NUL.
type PostgresEscaper struct{}

var pgReplacer = strings.NewReplacer("'", "''", "\x00", "")

func (PostgresEscaper) Escape(raw string) string {
	return pgReplacer.Replace(raw)
}

var _ Escaper = PostgresEscaper{}
