package searchlog

import (
	"context"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// Backends admitidos en searchlog.backend.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
)

// NopRecorder descarta los registros.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	return nil
}

var _ searchDomain.SearchRecorder = NopRecorder{}
