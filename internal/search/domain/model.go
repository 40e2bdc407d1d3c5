package domain

import (
	"sort"
	"strings"
)

// Table es una tabla secundaria unida a feature por id.
type Table struct {
	Name    string
	Columns []string // en minúsculas
}

// HasColumn compara sin distinguir mayúsculas, como hace PostgreSQL con
// identificadores sin comillas.
func (t Table) HasColumn(key string) bool {
	key = strings.ToLower(key)
	for _, c := range t.Columns {
		if c == key {
			return true
		}
	}
	return false
}

// Model es un modelo de búsqueda: su catálogo de filtros y sus tablas.
type Model struct {
	Name        string
	TablePrefix string
	Tables      []Table
	Catalog     *Catalog
}

// ---------------- Registry ----------------

const (
	DefaultModelName   = "DefaultModel"
	SatelliteModelName = "SatelliteModel"
	OpticalModelName   = "OpticalModel"
	LandCoverModelName = "LandCoverModel"
)

// ModelRegistry es el conjunto cerrado de modelos conocidos.
type ModelRegistry struct {
	models      map[string]*Model
	defaultName string
}

// NewModelRegistry registra los modelos; el primero es el modelo por defecto.
func NewModelRegistry(models ...*Model) *ModelRegistry {
	r := &ModelRegistry{models: make(map[string]*Model, len(models))}
	for i, m := range models {
		if i == 0 {
			r.defaultName = m.Name
		}
		r.models[m.Name] = m
	}
	return r
}

// Lookup devuelve el modelo; un nombre vacío selecciona el modelo por defecto.
func (r *ModelRegistry) Lookup(name string) (*Model, error) {
	if name == "" {
		name = r.defaultName
	}
	m, ok := r.models[name]
	if !ok {
		return nil, UnknownModel(name)
	}
	return m, nil
}

// Has indica si el nombre corresponde a un modelo registrado.
func (r *ModelRegistry) Has(name string) bool {
	_, ok := r.models[name]
	return ok
}

// Names devuelve los nombres registrados, ordenados.
func (r *ModelRegistry) Names() []string {
	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ---------------- Modelos integrados ----------------

func defaultFilters() []FilterSpec {
	return []FilterSpec{
		{Name: FilterSearchTerms, Key: "normalized_hashtags", Operation: OpKeywords},
		{Name: "count"},
		{Name: "startIndex"},
		{Name: "startPage"},
		{Name: "language"},
		{Name: FilterGeometry, Key: "geom", Operation: OpIntersects},
		{Name: FilterBox, Key: "geom", Operation: OpIntersects},
		{Name: FilterName},
		{Name: FilterLon, Key: "geom", Operation: OpDistance},
		{Name: FilterLat},
		{Name: FilterRadius},
		{Name: FilterStart, Key: "startDate", Operation: OpTimestamp, Operator: OpGte},
		{Name: FilterEnd, Key: "startDate", Operation: OpTimestamp, Operator: OpLte},
		{Name: FilterCreated, Key: "created", Operation: OpTimestamp, Operator: OpGte},
		{Name: "resto:collection", Key: "collection", Operation: OpIn},
		{Name: FilterModel, Key: "collection", Operation: OpLineage},
		{Name: "resto:id", Key: "id", Operation: OpIn},
		{Name: FilterOwner, Key: "userid", Operation: OpCompare, Operator: OpEq, Numeric: true},
		{Name: "resto:likes", Key: "likes", Operation: OpInterval},
		{Name: FilterLiked},
		{Name: "resto:status", Key: "status", Operation: OpCompare, Operator: OpEq, Numeric: true},
		{Name: FilterSort},
		{Name: FilterLowerThan, Key: "id", Operation: OpCompare, Operator: OpLt},
		{Name: FilterGreaterThan, Key: "id", Operation: OpCompare, Operator: OpGt},
		{Name: "eo:productIdentifier", Key: "productIdentifier", Operation: OpCompare, Operator: OpEq},
	}
}

func satelliteFilters() []FilterSpec {
	return []FilterSpec{
		{Name: "eo:productType", Key: "normalized_hashtags", Operation: OpKeywords, Prefix: "productType"},
		{Name: "eo:processingLevel", Key: "normalized_hashtags", Operation: OpKeywords, Prefix: "processingLevel"},
		{Name: "eo:platform", Key: "normalized_hashtags", Operation: OpKeywords, Prefix: "platform"},
		{Name: "eo:instrument", Key: "normalized_hashtags", Operation: OpKeywords, Prefix: "instrument"},
		{Name: "eo:sensorType", Key: "normalized_hashtags", Operation: OpKeywords, Prefix: "sensorType"},
	}
}

// LandCoverKeys son las columnas de cobertura del modelo LandCover.
var LandCoverKeys = []string{
	"cultivatedCover", "desertCover", "floodedCover", "forestCover",
	"herbaceousCover", "iceCover", "urbanCover", "waterCover",
}

func mustExtend(base *Catalog, extra []FilterSpec) *Catalog {
	c, err := base.Extend(extra...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultModels construye los modelos integrados y su registro.
func DefaultModels() *ModelRegistry {
	base := MustCatalog(defaultFilters()...)
	satellite := mustExtend(base, satelliteFilters())

	optical := mustExtend(satellite, []FilterSpec{
		{Name: "eo:cloudCover", Key: "cloudCover", Operation: OpInterval},
		{Name: "eo:snowCover", Key: "snowCover", Operation: OpInterval},
	})

	landSpecs := make([]FilterSpec, 0, len(LandCoverKeys))
	landColumns := make([]string, 0, len(LandCoverKeys))
	for _, k := range LandCoverKeys {
		landSpecs = append(landSpecs, FilterSpec{Name: "landcover:" + k, Key: k, Operation: OpInterval})
		landColumns = append(landColumns, strings.ToLower(k))
	}
	landcover := mustExtend(base, landSpecs)

	return NewModelRegistry(
		&Model{Name: DefaultModelName, Catalog: base},
		&Model{Name: SatelliteModelName, Catalog: satellite},
		&Model{
			Name:    OpticalModelName,
			Catalog: optical,
			Tables:  []Table{{Name: "optical_feature", Columns: []string{"cloudcover", "snowcover"}}},
		},
		&Model{
			Name:    LandCoverModelName,
			Catalog: landcover,
			Tables:  []Table{{Name: "landcover_feature", Columns: landColumns}},
		},
	)
}
