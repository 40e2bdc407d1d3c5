package postgre

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	sharedUtils "github.com/davicafu/stacsearch/internal/shared/infra/utils"
)

const tracerName = "stacsearch/postgre"

// querier es la parte de pgxpool.Pool que usa el repositorio.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FeatureRepoPostgres ejecuta las cláusulas compiladas contra PostGIS.
type FeatureRepoPostgres struct {
	db querier
}

// NewFeatureRepoPostgres es el constructor del repositorio.
func NewFeatureRepoPostgres(pool *pgxpool.Pool) *FeatureRepoPostgres {
	return &FeatureRepoPostgres{db: pool}
}

// featureColumns devuelve las columnas seleccionadas, cualificadas con la tabla.
func featureColumns(table string) []string {
	col := func(name string) string { return table + "." + name }
	return []string{
		col("id"),
		col("collection"),
		"COALESCE(" + col("productidentifier") + ", '')",
		"COALESCE(" + col("title") + ", '')",
		col("startdate"),
		col("completiondate"),
		col("created"),
		"COALESCE(" + col("likes") + ", 0)",
		col("visibility"),
		"COALESCE(" + col("userid") + ", 0)",
		"COALESCE(" + col("normalized_hashtags") + ", '{}')",
		"COALESCE(ST_AsText(" + col("geom") + "), '')",
	}
}

// buildSearchSQL compone la consulta externa alrededor de la cláusula.
// El texto de la cláusula ya viene escapado, así que no hay argumentos.
func buildSearchSQL(q searchDomain.FeatureQuery) (string, error) {
	if q.Table == "" {
		return "", fmt.Errorf("feature query without table")
	}

	b := sq.Select(featureColumns(q.Table)...).
		Column("count(*) OVER() AS totalcount").
		From(q.Table)

	for _, join := range q.Clause.Joins {
		b = b.JoinClause(join)
	}
	if q.Clause.Where != "" {
		b = b.Where(q.Clause.Where)
	}

	direction := "DESC"
	if q.SortAsc {
		direction = "ASC"
	}
	sortKey := q.SortKey
	if sortKey == "" {
		sortKey = "id"
	}
	b = b.OrderBy(q.Table + "." + sortKey + " " + direction)

	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return "", err
	}
	if len(args) > 0 {
		return "", fmt.Errorf("unexpected bound arguments in search query: %d", len(args))
	}
	return sqlStr, nil
}

// Search devuelve la página pedida y el total de resultados de la cláusula.
func (r *FeatureRepoPostgres) Search(ctx context.Context, q searchDomain.FeatureQuery) ([]*searchDomain.Feature, int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "FeatureRepoPostgres.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("search.table", q.Table),
		attribute.Int("search.joins", len(q.Clause.Joins)),
		attribute.Int("search.limit", q.Limit),
		attribute.Int("search.offset", q.Offset),
	)

	query, err := buildSearchSQL(q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build query")
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query")
		return nil, 0, classify(err)
	}
	defer rows.Close()

	var (
		features []*searchDomain.Feature
		total    int
	)
	for rows.Next() {
		var f searchDomain.Feature
		if err := rows.Scan(
			&f.ID, &f.Collection, &f.ProductIdentifier, &f.Title,
			&f.StartDate, &f.CompletionDate, &f.Created,
			&f.Likes, &f.Visibility, &f.Owner, &f.Hashtags, &f.GeometryWKT,
			&total,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan")
			return nil, 0, fmt.Errorf("scan feature: %w", err)
		}
		features = append(features, &f)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows")
		return nil, 0, classify(err)
	}

	// Una página vacía más allá del final no trae el total
	span.SetAttributes(attribute.Int("search.returned", len(features)), attribute.Int("search.total", total))
	return features, total, nil
}

// classify marca como permanentes los errores que devuelve el propio servidor
// (sintaxis, relación inexistente...): reintentar no cambia el resultado.
func classify(err error) error {
	wrapped := fmt.Errorf("db error: %w", err)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &sharedUtils.Permanent{Err: wrapped}
	}
	return wrapped
}

// Verificación estática
var _ searchDomain.FeatureRepository = (*FeatureRepoPostgres)(nil)
