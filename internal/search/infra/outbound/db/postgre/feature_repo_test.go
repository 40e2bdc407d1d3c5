package postgre

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	sharedUtils "github.com/davicafu/stacsearch/internal/shared/infra/utils"
)

func TestBuildSearchSQL(t *testing.T) {
	// Arrange
	q := searchDomain.FeatureQuery{
		Table: "resto.feature",
		Clause: searchDomain.Clause{
			Joins: []string{"JOIN resto.optical_feature ON resto.feature.id=resto.optical_feature.id"},
			Where: "resto.feature.visibility IN (100) AND resto.optical_feature.cloudcover <= 20",
		},
		SortKey: "startdate_idx",
		Limit:   20,
		Offset:  40,
	}

	// Act
	sqlStr, err := buildSearchSQL(q)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "SELECT resto.feature.id, resto.feature.collection,")
	assert.Contains(t, sqlStr, "count(*) OVER() AS totalcount FROM resto.feature JOIN resto.optical_feature ON resto.feature.id=resto.optical_feature.id")
	assert.Contains(t, sqlStr, "WHERE resto.feature.visibility IN (100) AND resto.optical_feature.cloudcover <= 20")
	assert.Contains(t, sqlStr, "ORDER BY resto.feature.startdate_idx DESC LIMIT 20 OFFSET 40")
}

func TestBuildSearchSQL_NoWhereAscendingDefaultKey(t *testing.T) {
	sqlStr, err := buildSearchSQL(searchDomain.FeatureQuery{Table: "resto.feature", SortAsc: true})
	require.NoError(t, err)
	assert.NotContains(t, sqlStr, "WHERE")
	assert.NotContains(t, sqlStr, "LIMIT")
	assert.Contains(t, sqlStr, "ORDER BY resto.feature.id ASC")
}

func TestBuildSearchSQL_KeepsQuestionMarksInLiterals(t *testing.T) {
	sqlStr, err := buildSearchSQL(searchDomain.FeatureQuery{
		Table:  "resto.feature",
		Clause: searchDomain.Clause{Where: "resto.feature.title = 'what?'"},
	})
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "'what?'")
}

func TestBuildSearchSQL_RequiresTable(t *testing.T) {
	_, err := buildSearchSQL(searchDomain.FeatureQuery{})
	assert.Error(t, err)
}

// Necesita una base PostGIS con el esquema resto cargado.
func TestFeatureRepoPostgres_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	repo := NewFeatureRepoPostgres(pool)
	features, total, err := repo.Search(ctx, searchDomain.FeatureQuery{
		Table:  "resto.feature",
		Clause: searchDomain.Clause{Where: "resto.feature.visibility IN (100)"},
		Limit:  5,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(features), 5)
	assert.GreaterOrEqual(t, total, len(features))
}

func TestClassify_ServerErrorsArePermanent(t *testing.T) {
	var perm *sharedUtils.Permanent

	err := classify(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})
	assert.ErrorAs(t, err, &perm)

	err = classify(errors.New("connection reset"))
	assert.False(t, errors.As(err, &perm))
	assert.EqualError(t, err, "db error: connection reset")
}
