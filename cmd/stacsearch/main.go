package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	config "github.com/davicafu/stacsearch/internal/config"
	searchApp "github.com/davicafu/stacsearch/internal/search/application"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	searchHttp "github.com/davicafu/stacsearch/internal/search/infra/inbound/http"
	searchCache "github.com/davicafu/stacsearch/internal/search/infra/outbound/cache"
	searchRepo "github.com/davicafu/stacsearch/internal/search/infra/outbound/db/postgre"
	"github.com/davicafu/stacsearch/internal/search/infra/outbound/searchlog"
	sharedCache "github.com/davicafu/stacsearch/internal/shared/infra/platform/cache"
	"github.com/davicafu/stacsearch/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.Log.Level) // inicializa zap
	log := logger.Logger()
	defer log.Sync() // flush buffers al salir

	// ---------------- DB ----------------
	pool, err := searchRepo.NewPool(ctx, searchRepo.PoolConfig{URL: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	featureRepo := searchRepo.NewFeatureRepoPostgres(pool)

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		memCache := searchCache.NewInMemorySearchCache(cfg.Cache.TTL, 3*cfg.Cache.TTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		cacheInstance = searchCache.NewRedisSearchCache(rdb, cfg.Cache.TTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ------------- Search log -------------
	recorder, closeRecorder := buildRecorder(ctx, cfg, log)
	defer closeRecorder()

	// --------------- Servicio --------------
	models := searchDomain.DefaultModels()
	searchService := searchApp.NewSearchService(models, featureRepo, cacheInstance, recorder, searchApp.Settings{
		Schema:          cfg.DB.Schema,
		UseGeometryPart: cfg.Search.UseGeometryPart,
		UseDistance:     cfg.Search.UseDistance,
		CacheTTL:        cfg.Cache.TTL,
	}, log)

	log.Info("📚 Modelos de búsqueda cargados", zap.Strings("models", models.Names()))

	// ---------------- HTTP ----------------
	searchHandler := searchHttp.NewSearchHandler(searchService, searchHttp.Limits{
		Default: cfg.Search.DefaultLimit,
		Max:     cfg.Search.MaxLimit,
	}, log)
	router := gin.Default()
	searchHttp.RegisterSearchRoutes(router, searchHandler)

	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTP.Port),
	)
	if err := router.Run(":" + cfg.HTTP.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// buildRecorder elige el destino del registro de búsquedas según searchlog.backend.
// Si el backend no está disponible se sigue sin registro.
func buildRecorder(ctx context.Context, cfg *config.Config, log *zap.Logger) (searchDomain.SearchRecorder, func()) {
	noop := func() {}

	switch cfg.SearchLog.Backend {
	case searchlog.BackendKafka:
		log.Info("🚀 Usando Kafka para el registro de búsquedas", zap.String("topic", cfg.Kafka.Topic))
		writer := searchlog.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return searchlog.NewKafkaRecorder(writer, log), func() { writer.Close() }

	case searchlog.BackendClickHouse:
		rec, err := searchlog.NewClickHouseRecorder(cfg.ClickHouse.Addr, cfg.ClickHouse.Database)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, búsquedas sin registrar", zap.Error(err))
			return searchlog.NopRecorder{}, noop
		}
		if err := rec.InitSchema(); err != nil {
			log.Warn("⚠️ No se pudo crear search_log en ClickHouse", zap.Error(err))
		}
		log.Info("📊 Registro de búsquedas en ClickHouse")
		batched, stop := startBatcher(ctx, rec, cfg, log)
		return batched, func() {
			stop()
			rec.Close()
		}

	case searchlog.BackendSQLite:
		db, err := searchlog.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			log.Warn("⚠️ SQLite no disponible, búsquedas sin registrar", zap.Error(err))
			return searchlog.NopRecorder{}, noop
		}
		rec := searchlog.NewSQLiteRecorder(db)
		if err := rec.InitSchema(ctx); err != nil {
			log.Warn("⚠️ No se pudo crear search_log en SQLite", zap.Error(err))
			db.Close()
			return searchlog.NopRecorder{}, noop
		}
		log.Info("🗂️ Registro de búsquedas en SQLite", zap.String("path", cfg.SQLite.Path))
		batched, stop := startBatcher(ctx, rec, cfg, log)
		return batched, func() {
			stop()
			db.Close()
		}

	case searchlog.BackendMemory:
		log.Info("⚡️ Registro de búsquedas en memoria (canales de Go)")
		rec := searchlog.NewMemoryRecorder()
		records := rec.Subscribe(100)
		go func() {
			for r := range records {
				log.Debug("🔎 Search recorded",
					zap.String("id", r.ID.String()),
					zap.String("model", r.Model),
					zap.Int("total", r.TotalCount),
					zap.Bool("cache_hit", r.CacheHit),
					zap.Duration("took", r.Duration),
				)
			}
		}()
		return rec, noop

	default:
		return searchlog.NopRecorder{}, noop
	}
}

// startBatcher agrupa los registros antes de escribirlos en el destino.
// La función devuelta para el bucle y espera al último envío.
func startBatcher(ctx context.Context, target searchDomain.SearchRecorder, cfg *config.Config, log *zap.Logger) (*searchlog.BatchRecorder, func()) {
	batched := searchlog.NewBatchRecorder(target, cfg.SearchLog.FlushInterval, cfg.SearchLog.BatchSize, cfg.SearchLog.BufferSize, log)

	batchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		batched.Start(batchCtx)
		close(done)
	}()

	return batched, func() {
		cancel()
		<-done
	}
}
