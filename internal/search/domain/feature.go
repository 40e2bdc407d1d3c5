package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Feature es un registro del catálogo tal como lo devuelve el ejecutor.
type Feature struct {
	ID                uuid.UUID  `json:"id"`
	Collection        string     `json:"collection"`
	ProductIdentifier string     `json:"productIdentifier,omitempty"`
	Title             string     `json:"title,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	CompletionDate    *time.Time `json:"completionDate,omitempty"`
	Created           time.Time  `json:"created"`
	Likes             int        `json:"likes"`
	Visibility        int64      `json:"visibility"`
	Owner             int64      `json:"owner"`
	Hashtags          []string   `json:"hashtags,omitempty"`
	GeometryWKT       string     `json:"geometry,omitempty"`
}

// Clause es el fragmento JOIN/WHERE renderizado, listo para la consulta externa.
type Clause struct {
	Joins []string
	Where string
}

// String devuelve "<joins> WHERE <where>" o sólo los joins si no hay predicados.
func (c Clause) String() string {
	joins := strings.Join(c.Joins, " ")
	if c.Where == "" {
		return joins
	}
	if joins == "" {
		return "WHERE " + c.Where
	}
	return joins + " WHERE " + c.Where
}

// IsEmpty indica que no hay ni joins ni predicados.
func (c Clause) IsEmpty() bool {
	return len(c.Joins) == 0 && c.Where == ""
}

// FeatureQuery agrupa lo que el ejecutor necesita para materializar una búsqueda.
type FeatureQuery struct {
	Table   string // tabla de features cualificada, ej. resto.feature
	Clause  Clause
	SortKey string
	SortAsc bool
	Limit   int
	Offset  int
}

// SearchRecord es el registro analítico de una búsqueda ejecutada.
type SearchRecord struct {
	ID         uuid.UUID         `json:"id"`
	Model      string            `json:"model"`
	Params     map[string]string `json:"params"`
	Clause     string            `json:"clause"`
	UserID     int64             `json:"userId"`
	TotalCount int               `json:"totalCount"`
	Returned   int               `json:"returned"`
	CacheHit   bool              `json:"cacheHit"`
	Duration   time.Duration     `json:"duration"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// PartitionKey agrupa los registros por modelo.
func (r SearchRecord) PartitionKey() string {
	return r.Model
}
