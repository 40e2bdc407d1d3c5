package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/stacsearch/internal/search/compiler"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	sharedCache "github.com/davicafu/stacsearch/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/stacsearch/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/stacsearch/internal/shared/infra/utils"
)

const (
	cacheNamespace = "search"
	recordTimeout  = 2 * time.Second
)

// Settings agrupa la configuración de compilación y caché del servicio.
type Settings struct {
	Schema          string
	UseGeometryPart bool
	UseDistance     bool
	CacheTTL        time.Duration
}

// SearchRequest es una búsqueda ya traducida a nombres de filtro OpenSearch.
type SearchRequest struct {
	Model  string
	Params map[string]string
	Caller searchDomain.Caller
	Sort   sharedQuery.Sort
	Page   sharedQuery.OffsetPagination
	NoGeo  bool // omite los predicados espaciales (heatmaps)
}

// CompiledSearch es la cláusula renderizada junto al modelo que la produjo.
type CompiledSearch struct {
	Model  *searchDomain.Model
	Table  string
	Clause searchDomain.Clause
}

// SearchResult es una página de resultados.
type SearchResult struct {
	ID         uuid.UUID                     `json:"id"`
	Model      string                        `json:"model"`
	Features   []*searchDomain.Feature       `json:"features"`
	TotalCount int                           `json:"totalCount"`
	Page       sharedQuery.OffsetPagination `json:"page"`
	CacheHit   bool                          `json:"-"`
}

// cachedPage es lo que se guarda en caché por cláusula y página.
type cachedPage struct {
	Features   []*searchDomain.Feature `json:"features"`
	TotalCount int                     `json:"totalCount"`
}

// SearchService define los casos de uso de búsqueda.
// Incorpora registro de modelos, repositorio, caché, registro de búsquedas y logger.
type SearchService struct {
	models   *searchDomain.ModelRegistry
	repo     searchDomain.FeatureRepository
	cache    sharedCache.Cache
	recorder searchDomain.SearchRecorder
	settings Settings
	escaper  searchDomain.Escaper
	log      *zap.Logger
}

// NewSearchService es el constructor para el servicio de búsqueda.
func NewSearchService(
	models *searchDomain.ModelRegistry,
	repo searchDomain.FeatureRepository,
	cache sharedCache.Cache,
	recorder searchDomain.SearchRecorder,
	settings Settings,
	log *zap.Logger,
) *SearchService {
	return &SearchService{
		models:   models,
		repo:     repo,
		cache:    cache,
		recorder: recorder,
		settings: settings,
		escaper:  searchDomain.PostgresEscaper{},
		log:      log,
	}
}

// Compile resuelve el modelo y compila los parámetros en una cláusula.
// Se crea un Assembler nuevo por petición.
func (s *SearchService) Compile(ctx context.Context, req SearchRequest) (*CompiledSearch, error) {
	model, err := s.models.Lookup(req.Model)
	if err != nil {
		s.logRejected(req, err)
		return nil, err
	}

	assembler := compiler.NewAssembler(model, req.Caller, compiler.Options{
		Schema:          s.settings.Schema,
		UseGeometryPart: s.settings.UseGeometryPart,
		UseDistance:     s.settings.UseDistance,
		Visibility:      searchDomain.GroupVisibility{AdminGroup: searchDomain.GroupAdmin},
		Models:          s.models,
	})

	filterSet, err := assembler.Prepare(req.Params, req.Sort.Field)
	if err != nil {
		s.logRejected(req, err)
		return nil, err
	}

	clause := compiler.Render(filterSet, compiler.RenderOptions{
		AddGeo:  !req.NoGeo,
		UseSort: req.Sort.Field != "",
	}, s.escaper)

	return &CompiledSearch{Model: model, Table: assembler.FeatureTable(), Clause: clause}, nil
}

// Search compila la petición y ejecuta la consulta usando cache-aside con reintentos.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()

	compiled, err := s.Compile(ctx, req)
	if err != nil {
		return nil, err
	}

	q := searchDomain.FeatureQuery{
		Table:   compiled.Table,
		Clause:  compiled.Clause,
		SortKey: req.Sort.Field,
		SortAsc: !req.Sort.Desc,
		Limit:   req.Page.Limit,
		Offset:  req.Page.Offset,
	}
	key := sharedCache.Key(cacheNamespace,
		compiled.Model.Name,
		compiled.Clause.String(),
		q.SortKey,
		strconv.FormatBool(q.SortAsc),
		strconv.Itoa(q.Limit),
		strconv.Itoa(q.Offset),
	)

	result := &SearchResult{ID: uuid.New(), Model: compiled.Model.Name, Page: req.Page}

	// 1. Intentar obtener de la caché
	var page cachedPage
	if sharedCache.GetCached(ctx, s.cache, key, &page, s.log) {
		result.Features, result.TotalCount, result.CacheHit = page.Features, page.TotalCount, true
		s.record(req, compiled, result, time.Since(start))
		return result, nil
	}

	// 2. Si es 'miss', ir al repositorio con reintentos
	err = sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		page.Features, page.TotalCount, errRetry = s.repo.Search(ctx, q)
		if errors.Is(errRetry, context.Canceled) || errors.Is(errRetry, context.DeadlineExceeded) {
			return &sharedUtils.Permanent{Err: errRetry}
		}
		return errRetry
	})
	if err != nil {
		s.log.Error("Search execution failed",
			zap.String("model", compiled.Model.Name),
			zap.String("clause", compiled.Clause.String()),
			zap.Error(err),
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, searchDomain.Internal(err)
	}
	result.Features, result.TotalCount = page.Features, page.TotalCount

	// 3. Actualizar caché en segundo plano para la próxima vez
	sharedCache.AsyncCacheSet(s.cache, key, page, int(s.settings.CacheTTL.Seconds()), s.log)

	s.record(req, compiled, result, time.Since(start))
	return result, nil
}

// record envía el registro de la búsqueda en segundo plano.
func (s *SearchService) record(req SearchRequest, compiled *CompiledSearch, result *SearchResult, took time.Duration) {
	if s.recorder == nil {
		return
	}

	rec := searchDomain.SearchRecord{
		ID:         result.ID,
		Model:      compiled.Model.Name,
		Params:     req.Params,
		Clause:     compiled.Clause.String(),
		UserID:     req.Caller.UserID,
		TotalCount: result.TotalCount,
		Returned:   len(result.Features),
		CacheHit:   result.CacheHit,
		Duration:   took,
		CreatedAt:  time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.recorder.Record(ctx, []searchDomain.SearchRecord{rec}); err != nil {
			s.log.Warn("⚠️ Search record failed", zap.String("search_id", rec.ID.String()), zap.Error(err))
		}
	}()
}

func (s *SearchService) logRejected(req SearchRequest, err error) {
	se := searchDomain.AsSearchError(err)
	s.log.Warn("Search rejected",
		zap.String("model", req.Model),
		zap.String("filter", se.Filter),
		zap.String("code", se.Code()),
		zap.Error(err),
	)
}
