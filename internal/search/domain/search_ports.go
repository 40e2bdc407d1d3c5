package domain

import (
	"context"
)

// FeatureRepository ejecuta una cláusula compilada y devuelve la página pedida
// junto al total de resultados.
type FeatureRepository interface {
	Search(ctx context.Context, q FeatureQuery) ([]*Feature, int, error)
}

// SearchRecorder persiste o publica los registros de búsqueda.
type SearchRecorder interface {
	Record(ctx context.Context, records []SearchRecord) error
}
