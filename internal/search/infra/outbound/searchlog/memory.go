package searchlog

import (
	"context"
	"sync"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// MemoryRecorder reparte los registros entre suscriptores en memoria.
// Si un suscriptor tiene el buffer lleno, el registro se descarta para él.
type MemoryRecorder struct {
	subscribers []chan searchDomain.SearchRecord
	mu          sync.RWMutex
}

var _ searchDomain.SearchRecorder = (*MemoryRecorder)(nil)

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{subscribers: make([]chan searchDomain.SearchRecord, 0)}
}

func (r *MemoryRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range records {
		r.distribute(rec)
	}
	return nil
}

func (r *MemoryRecorder) distribute(rec searchDomain.SearchRecord) {
	for _, sub := range r.subscribers {
		select {
		case sub <- rec:
		default:
		}
	}
}

// Subscribe registra un nuevo oyente con el buffer indicado.
func (r *MemoryRecorder) Subscribe(bufferSize int) <-chan searchDomain.SearchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := make(chan searchDomain.SearchRecord, bufferSize)
	r.subscribers = append(r.subscribers, sub)
	return sub
}
