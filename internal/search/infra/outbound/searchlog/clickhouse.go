package searchlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// ClickHouseRecorder guarda las búsquedas en una tabla analítica.
type ClickHouseRecorder struct {
	db *sql.DB
}

// NewClickHouseRecorder abre la conexión y comprueba que responde.
func NewClickHouseRecorder(addr string, dbName string) (*ClickHouseRecorder, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &ClickHouseRecorder{db: conn}, nil
}

// Record inserta el lote dentro de una transacción; ClickHouse lo envía como un solo bloque.
func (r *ClickHouseRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO search_log (id, model, params, clause, user_id, total_count, returned, cache_hit, duration_ms, created_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		params, err := json.Marshal(rec.Params)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(
			ctx,
			rec.ID,
			rec.Model,
			string(params),
			rec.Clause,
			rec.UserID,
			uint64(rec.TotalCount),
			uint32(rec.Returned),
			rec.CacheHit,
			rec.Duration.Milliseconds(),
			rec.CreatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for search %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// InitSchema crea la tabla si no existe. Particionada por mes y ordenada por modelo.
func (r *ClickHouseRecorder) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS search_log (
			id          UUID,
			model       LowCardinality(String),
			params      String,
			clause      String,
			user_id     Int64,
			total_count UInt64,
			returned    UInt32,
			cache_hit   Bool,
			duration_ms Int64,
			created_at  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (model, created_at);
	`
	_, err := r.db.Exec(query)
	return err
}

func (r *ClickHouseRecorder) Close() error {
	return r.db.Close()
}

var _ searchDomain.SearchRecorder = (*ClickHouseRecorder)(nil)
