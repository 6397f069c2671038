package kernel

import (
	"context"

	"go.uber.org/zap"

	"github.com/zfogg/sidechain/backend/internal/acquire"
	"github.com/zfogg/sidechain/backend/internal/bundle"
	"github.com/zfogg/sidechain/backend/internal/cache"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
	"github.com/zfogg/sidechain/backend/internal/pipeline"
	"github.com/zfogg/sidechain/backend/internal/ratelimit"
	"github.com/zfogg/sidechain/backend/internal/registry"
	"github.com/zfogg/sidechain/backend/internal/remix"
	"github.com/zfogg/sidechain/backend/internal/store"
)

// MockKernel is a kernel designed for testing.
// It allows easy overriding of dependencies with test doubles (mocks, stubs, fakes).
type MockKernel struct {
	*Kernel
	overrides map[string]interface{}
}

// NewMock creates a new mock kernel with no services registered; supply
// each dependency with the WithMock* methods
func NewMock() *MockKernel {
	return &MockKernel{
		Kernel:    New(),
		overrides: make(map[string]interface{}),
	}
}

// WithMockLogger sets a test logger
func (m *MockKernel) WithMockLogger(l *zap.Logger) *MockKernel {
	m.SetLogger(l)
	return m
}

// WithMockCache sets a mock cache
func (m *MockKernel) WithMockCache(c *cache.RedisClient) *MockKernel {
	m.SetCache(c)
	return m
}

// WithMockStore sets a mock artifact store
func (m *MockKernel) WithMockStore(s *store.Store) *MockKernel {
	m.SetStore(s)
	return m
}

// WithMockToolchain sets a mock media toolchain
func (m *MockKernel) WithMockToolchain(t *mediatool.Toolchain) *MockKernel {
	m.SetToolchain(t)
	return m
}

// WithMockRegistry sets a mock job registry
func (m *MockKernel) WithMockRegistry(r *registry.Registry) *MockKernel {
	m.SetRegistry(r)
	return m
}

// WithMockPipeline sets a mock job pipeline
func (m *MockKernel) WithMockPipeline(p *pipeline.Pipeline) *MockKernel {
	m.SetPipeline(p)
	return m
}

// WithMockRemixEngine sets a mock remix engine
func (m *MockKernel) WithMockRemixEngine(e *remix.Engine) *MockKernel {
	m.SetRemixEngine(e)
	return m
}

// WithMockExporter sets a mock bundle exporter
func (m *MockKernel) WithMockExporter(e *bundle.Exporter) *MockKernel {
	m.SetExporter(e)
	return m
}

// WithMockImporter sets a mock bundle importer
func (m *MockKernel) WithMockImporter(i *bundle.Importer) *MockKernel {
	m.SetImporter(i)
	return m
}

// WithMockURLAcquirer sets a mock URL acquirer
func (m *MockKernel) WithMockURLAcquirer(a acquire.Acquirer) *MockKernel {
	m.SetURLAcquirer(a)
	return m
}

// WithMockUploadAcquirer sets a mock upload acquirer
func (m *MockKernel) WithMockUploadAcquirer(a acquire.Acquirer) *MockKernel {
	m.SetUploadAcquirer(a)
	return m
}

// WithMockRateLimiter sets a mock rate limiter
func (m *MockKernel) WithMockRateLimiter(l ratelimit.Limiter) *MockKernel {
	m.SetRateLimiter(l)
	return m
}

// Override sets a custom override for a specific dependency type
func (m *MockKernel) Override(key string, value interface{}) *MockKernel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[key] = value
	return m
}

// GetOverride retrieves an override if set
func (m *MockKernel) GetOverride(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.overrides[key]
	return val, ok
}

// MinimalMock creates a mock kernel with only the absolute minimum dependencies.
// Useful for isolated unit tests.
func MinimalMock() *MockKernel {
	mock := NewMock()
	mock.SetLogger(logger.Log)
	return mock
}

// Clean cleans up test kernels after tests complete
func (m *MockKernel) Clean(ctx context.Context) error {
	return m.Cleanup(ctx)
}
