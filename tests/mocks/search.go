package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// MockFeatureRepository es un mock de FeatureRepository basado en testify/mock.
type MockFeatureRepository struct {
	mock.Mock
}

var _ searchDomain.FeatureRepository = (*MockFeatureRepository)(nil)

func (m *MockFeatureRepository) Search(ctx context.Context, q searchDomain.FeatureQuery) ([]*searchDomain.Feature, int, error) {
	args := m.Called(ctx, q)
	var features []*searchDomain.Feature
	if f := args.Get(0); f != nil {
		features = f.([]*searchDomain.Feature)
	}
	return features, args.Int(1), args.Error(2)
}

// MockSearchRecorder es un mock de SearchRecorder. Cada llamada se publica
// además en Records para poder esperar a las grabaciones asíncronas.
type MockSearchRecorder struct {
	mock.Mock
	Records chan searchDomain.SearchRecord
}

var _ searchDomain.SearchRecorder = (*MockSearchRecorder)(nil)

func NewMockSearchRecorder() *MockSearchRecorder {
	return &MockSearchRecorder{Records: make(chan searchDomain.SearchRecord, 16)}
}

func (m *MockSearchRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	args := m.Called(ctx, records)
	for _, rec := range records {
		select {
		case m.Records <- rec:
		default:
		}
	}
	return args.Error(0)
}
