package searchlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	"github.com/davicafu/stacsearch/tests/mocks"
)

func TestBatchRecorder_FlushSendsOneBatch(t *testing.T) {
	// Arrange
	target := mocks.NewMockSearchRecorder()
	target.On("Record", mock.Anything, mock.MatchedBy(func(recs []searchDomain.SearchRecord) bool {
		return len(recs) == 2
	})).Return(nil).Twice()
	b := NewBatchRecorder(target, time.Hour, 2, 10, zap.NewNop())

	// Act
	_ = b.Record(context.Background(), []searchDomain.SearchRecord{newRecord("a"), newRecord("b"), newRecord("c")})
	first := b.Flush(context.Background())

	// Assert
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, b.Len())
}

func TestBatchRecorder_FailedBatchIsKept(t *testing.T) {
	// Arrange
	target := mocks.NewMockSearchRecorder()
	target.On("Record", mock.Anything, mock.Anything).Return(errors.New("clickhouse down")).Once()
	target.On("Record", mock.Anything, mock.Anything).Return(nil).Once()
	b := NewBatchRecorder(target, time.Hour, 10, 10, zap.NewNop())
	_ = b.Record(context.Background(), []searchDomain.SearchRecord{newRecord("a")})

	// Act
	failed := b.Flush(context.Background())
	retried := b.Flush(context.Background())

	// Assert
	assert.Equal(t, 0, failed)
	assert.Equal(t, 1, retried)
	assert.Equal(t, 0, b.Len())
	target.AssertNumberOfCalls(t, "Record", 2)
}

func TestBatchRecorder_DropsWhenFull(t *testing.T) {
	target := mocks.NewMockSearchRecorder()
	b := NewBatchRecorder(target, time.Hour, 1, 2, zap.NewNop())

	_ = b.Record(context.Background(), []searchDomain.SearchRecord{newRecord("a"), newRecord("b"), newRecord("c")})

	assert.Equal(t, 2, b.Len())
}

func TestBatchRecorder_StartFlushesOnShutdown(t *testing.T) {
	// Arrange
	target := mocks.NewMockSearchRecorder()
	target.On("Record", mock.Anything, mock.Anything).Return(nil)
	b := NewBatchRecorder(target, time.Hour, 1, 10, zap.NewNop())
	_ = b.Record(context.Background(), []searchDomain.SearchRecord{newRecord("a"), newRecord("b")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Act
	go func() {
		b.Start(ctx)
		close(done)
	}()
	cancel()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batcher did not stop")
	}
	assert.Equal(t, 0, b.Len())
	target.AssertNumberOfCalls(t, "Record", 2)
}

// slowRecorder tarda en cada envío y guarda los modelos recibidos.
type slowRecorder struct {
	mu     sync.Mutex
	models []string
}

func (r *slowRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.models = append(r.models, rec.Model)
	}
	return nil
}

func TestBatchRecorder_ConcurrentFlushesSendEachRecordOnce(t *testing.T) {
	// Arrange
	target := &slowRecorder{}
	b := NewBatchRecorder(target, time.Hour, 1, 10, zap.NewNop())
	_ = b.Record(context.Background(), []searchDomain.SearchRecord{newRecord("a"), newRecord("b")})

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Flush(context.Background())
		}()
	}
	wg.Wait()

	// Assert
	assert.ElementsMatch(t, []string{"a", "b"}, target.models)
	assert.Equal(t, 0, b.Len())
}
