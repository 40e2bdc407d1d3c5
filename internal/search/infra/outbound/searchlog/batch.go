package searchlog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// BatchRecorder acumula registros en memoria y los envía por lotes al
// recorder de destino en cada tick. Si el envío falla, el lote se conserva
// para el siguiente tick mientras quepa en el buffer.
type BatchRecorder struct {
	target    searchDomain.SearchRecorder
	interval  time.Duration
	batchSize int
	capacity  int
	log       *zap.Logger

	flushMu sync.Mutex // un solo envío a la vez
	mu      sync.Mutex
	pending []searchDomain.SearchRecord
	dropped int
}

var _ searchDomain.SearchRecorder = (*BatchRecorder)(nil)

func NewBatchRecorder(
	target searchDomain.SearchRecorder,
	interval time.Duration,
	batchSize int,
	capacity int,
	log *zap.Logger,
) *BatchRecorder {
	if capacity < batchSize {
		capacity = batchSize
	}
	return &BatchRecorder{
		target:    target,
		interval:  interval,
		batchSize: batchSize,
		capacity:  capacity,
		log:       log,
	}
}

// Record encola los registros. Nunca bloquea por el destino.
func (b *BatchRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	free := b.capacity - len(b.pending)
	if free < len(records) {
		b.dropped += len(records) - free
		records = records[:max(free, 0)]
	}
	b.pending = append(b.pending, records...)
	return nil
}

// Start inicia el bucle de envío. Al cancelar el contexto se hace un último envío.
func (b *BatchRecorder) Start(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info("🚀 Search log batcher iniciado", zap.Duration("interval", b.interval), zap.Int("batch_size", b.batchSize))

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for b.Len() > 0 {
				if b.Flush(flushCtx) == 0 {
					break
				}
			}
			cancel()
			b.log.Info("🛑 Search log batcher detenido.")
			return
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// Flush envía como mucho un lote y devuelve cuántos registros salieron.
// Las llamadas concurrentes se serializan.
func (b *BatchRecorder) Flush(ctx context.Context) int {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	n := min(len(b.pending), b.batchSize)
	batch := make([]searchDomain.SearchRecord, n)
	copy(batch, b.pending[:n])
	dropped := b.dropped
	b.dropped = 0
	b.mu.Unlock()

	if dropped > 0 {
		b.log.Warn("⚠️ Search log buffer lleno, registros descartados", zap.Int("dropped", dropped))
	}
	if n == 0 {
		return 0
	}

	if err := b.target.Record(ctx, batch); err != nil {
		b.log.Warn("⚠️ No se pudo enviar el lote de búsquedas", zap.Int("count", n), zap.Error(err))
		return 0 // se reintenta en el siguiente tick
	}

	b.mu.Lock()
	b.pending = b.pending[n:]
	b.mu.Unlock()
	return n
}

// Len devuelve los registros pendientes de envío.
func (b *BatchRecorder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
