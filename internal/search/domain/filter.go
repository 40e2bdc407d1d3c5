package domain

import (
	"fmt"
)

// Operation identifica el compilador que procesa el valor crudo de un filtro.
type Operation string

const (
	// OpCompare es igualdad, LIKE o comparación con Operator.
	OpCompare    Operation = "compare"
	OpIn         Operation = "in"
	OpInterval   Operation = "interval"
	OpKeywords   Operation = "keywords"
	OpIntersects Operation = "intersects"
	OpDistance   Operation = "distance"
	// OpLineage filtra colecciones cuyo linaje contiene un modelo.
	OpLineage Operation = "lineage"
	// OpTimestamp compara fechas indexadas vía timestamp_to_firstid.
	OpTimestamp Operation = "timestamp"
)

// Nombres de filtros con tratamiento especial.
const (
	FilterSearchTerms = "searchTerms"
	FilterGeometry    = "geo:geometry"
	FilterBox         = "geo:box"
	FilterLon         = "geo:lon"
	FilterLat         = "geo:lat"
	FilterRadius      = "geo:radius"
	FilterName        = "geo:name"
	FilterStart       = "time:start"
	FilterEnd         = "time:end"
	FilterCreated     = "dc:date"
	FilterOwner       = "resto:owner"
	FilterModel       = "resto:model"
	FilterSort        = "resto:sort"
	FilterLowerThan   = "resto:lt"
	FilterGreaterThan = "resto:gt"
	FilterLiked       = "resto:liked"
)

// TagSeparator separa el tipo del valor en un hashtag ("instrument:MSI").
const TagSeparator = ":"

// FilterSpec describe un parámetro de búsqueda soportado por un modelo.
type FilterSpec struct {
	Name      string
	Key       string // columna que respalda el filtro; vacía = no compilable
	Operation Operation
	Operator  Operator // operador SQL para OpCompare / OpTimestamp
	Prefix    string   // prefijo de hashtag para OpKeywords
	Minimum   int      // 1 = obligatorio
	Numeric   bool     // los valores se comparan sin comillas
}

// Mandatory indica si el filtro debe estar presente en la petición.
func (f FilterSpec) Mandatory() bool {
	return f.Minimum >= 1
}

// Compilable indica si el filtro tiene columna asociada.
func (f FilterSpec) Compilable() bool {
	return f.Key != ""
}

var knownOperations = map[Operation]struct{}{
	OpCompare: {}, OpIn: {}, OpInterval: {}, OpKeywords: {},
	OpIntersects: {}, OpDistance: {}, OpLineage: {}, OpTimestamp: {},
}

func (f FilterSpec) validate() error {
	if f.Name == "" {
		return fmt.Errorf("filter without name")
	}
	if !f.Compilable() {
		return nil
	}
	if _, ok := knownOperations[f.Operation]; !ok {
		return fmt.Errorf("filter %s: unsupported operation %q", f.Name, f.Operation)
	}
	if (f.Operation == OpCompare || f.Operation == OpTimestamp) && f.Operator == "" {
		return fmt.Errorf("filter %s: operation %s requires an operator", f.Name, f.Operation)
	}
	return nil
}

// ---------------- Catalog ----------------

// Catalog es la tabla inmutable de filtros de un modelo, en orden de declaración.
type Catalog struct {
	specs []FilterSpec
	index map[string]int
}

// NewCatalog valida las entradas y construye el catálogo.
func NewCatalog(specs ...FilterSpec) (*Catalog, error) {
	c := &Catalog{
		specs: make([]FilterSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[s.Name]; dup {
			return nil, fmt.Errorf("filter %s declared twice", s.Name)
		}
		c.index[s.Name] = len(c.specs)
		c.specs = append(c.specs, s)
	}
	return c, nil
}

// MustCatalog es como NewCatalog pero hace panic ante un catálogo inválido.
// Pensado para las tablas estáticas de los modelos.
func MustCatalog(specs ...FilterSpec) *Catalog {
	c, err := NewCatalog(specs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup devuelve la especificación de un filtro. Los nombres desconocidos se ignoran.
func (c *Catalog) Lookup(name string) (FilterSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return FilterSpec{}, false
	}
	return c.specs[i], true
}

// Specs devuelve una copia de las entradas en orden de declaración.
func (c *Catalog) Specs() []FilterSpec {
	out := make([]FilterSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Extend devuelve un catálogo nuevo con las entradas extra añadidas o sustituidas.
func (c *Catalog) Extend(specs ...FilterSpec) (*Catalog, error) {
	merged := c.Specs()
	for _, s := range specs {
		if i, ok := c.index[s.Name]; ok {
			merged[i] = s
			continue
		}
		merged = append(merged, s)
	}
	return NewCatalog(merged...)
}

// ExcludedFilters son parámetros de paginación/meta o consumidos junto a otro filtro.
var ExcludedFilters = map[string]struct{}{
	"count":           {},
	"startIndex":      {},
	"startPage":       {},
	"language":        {},
	FilterName:        {},
	FilterLat:         {},
	FilterRadius:      {},
	FilterSort:        {},
	FilterLowerThan:   {},
	FilterGreaterThan: {},
	FilterLiked:       {},
}

// IsExcluded indica si el filtro nunca se compila por la vía general.
func IsExcluded(name string) bool {
	_, ok := ExcludedFilters[name]
	return ok
}

// IsSortFilter indica si el filtro es un cursor de ordenación (resto:lt / resto:gt).
func IsSortFilter(name string) bool {
	return name == FilterLowerThan || name == FilterGreaterThan
}
