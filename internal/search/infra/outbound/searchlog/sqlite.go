package searchlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// SQLiteRecorder guarda las búsquedas en un fichero local, pensado para despliegues de un solo nodo.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite abre la base de datos con el driver de modernc.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Un solo escritor
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db}
}

// InitSchema crea la tabla search_log si no existe.
func (r *SQLiteRecorder) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_log (
			id          TEXT PRIMARY KEY,
			model       TEXT NOT NULL,
			params      TEXT NOT NULL,
			clause      TEXT NOT NULL,
			user_id     INTEGER NOT NULL,
			total_count INTEGER NOT NULL,
			returned    INTEGER NOT NULL,
			cache_hit   INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)`)
	return err
}

func (r *SQLiteRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, rec := range records {
		params, err := json.Marshal(rec.Params)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO search_log (id, model, params, clause, user_id, total_count, returned, cache_hit, duration_ms, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID.String(), rec.Model, string(params), rec.Clause, rec.UserID,
			rec.TotalCount, rec.Returned, rec.CacheHit, rec.Duration.Milliseconds(), rec.CreatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("db error inserting search %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Recent devuelve los últimos registros, del más reciente al más antiguo.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]searchDomain.SearchRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, model, params, clause, user_id, total_count, returned, cache_hit, duration_ms, created_at
		 FROM search_log
		 ORDER BY created_at DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []searchDomain.SearchRecord
	for rows.Next() {
		var (
			rec        searchDomain.SearchRecord
			id, params string
			durationMs int64
		)
		if err := rows.Scan(&id, &rec.Model, &params, &rec.Clause, &rec.UserID,
			&rec.TotalCount, &rec.Returned, &rec.CacheHit, &durationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}

		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in search_log row: %w", err)
		}
		rec.ID = parsedID
		rec.Duration = time.Duration(durationMs) * time.Millisecond

		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("invalid JSON params in search_log row %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Verificación en tiempo de compilación.
var _ searchDomain.SearchRecorder = (*SQLiteRecorder)(nil)
