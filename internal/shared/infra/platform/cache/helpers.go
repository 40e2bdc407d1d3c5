package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// asyncTimeout limita las escrituras en segundo plano.
const asyncTimeout = 200 * time.Millisecond

// AsyncCacheSet actualiza caché en background sin bloquear la petición.
func AsyncCacheSet(cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		// Dispara y olvida: el contexto de la petición puede estar ya cancelado.
		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

// GetCached consulta la caché ignorando sus fallos: una caché caída es un miss.
func GetCached(ctx context.Context, cache Cache, key string, dest interface{}, log *zap.Logger) bool {
	if cache == nil {
		return false
	}
	hit, err := cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}
