// Package kernel provides dependency injection management for the
// stem-separation service. It consolidates all services and provides
// type-safe access to dependencies.
package kernel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/zfogg/sidechain/backend/internal/acquire"
	"github.com/zfogg/sidechain/backend/internal/bundle"
	"github.com/zfogg/sidechain/backend/internal/cache"
	"github.com/zfogg/sidechain/backend/internal/config"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
	"github.com/zfogg/sidechain/backend/internal/pipeline"
	"github.com/zfogg/sidechain/backend/internal/ratelimit"
	"github.com/zfogg/sidechain/backend/internal/registry"
	"github.com/zfogg/sidechain/backend/internal/remix"
	"github.com/zfogg/sidechain/backend/internal/store"
)

// Kernel holds every service the HTTP surface dispatches to, plus
// lifecycle hooks for graceful shutdown. It implements the service
// locator pattern with chainable Set* methods and matching getters.
type Kernel struct {
	config *config.Config
	logger *zap.Logger
	cache  *cache.RedisClient

	store     *store.Store
	toolchain *mediatool.Toolchain
	registry  *registry.Registry
	pipeline  *pipeline.Pipeline
	remix     *remix.Engine
	exporter  *bundle.Exporter
	importer  *bundle.Importer

	urlAcquirer    acquire.Acquirer
	uploadAcquirer acquire.Acquirer

	rateLimiter ratelimit.Limiter

	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates an empty Kernel. Services are registered with the Set*
// methods below.
func New() *Kernel {
	return &Kernel{cleanupFuncs: make([]func(context.Context) error, 0)}
}

// SetConfig registers the loaded configuration.
func (k *Kernel) SetConfig(c *config.Config) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.config = c
	return k
}

// Config returns the loaded configuration.
func (k *Kernel) Config() *config.Config {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.config
}

// SetLogger registers the structured logger.
func (k *Kernel) SetLogger(l *zap.Logger) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = l
	return k
}

// Logger returns the structured logger, falling back to the package
// global if none was explicitly registered.
func (k *Kernel) Logger() *zap.Logger {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.logger == nil {
		return logger.Log
	}
	return k.logger
}

// SetCache registers the optional Redis client backing the
// distributed rate limiter.
func (k *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache = client
	return k
}

// Cache returns the optional Redis client, or nil if not configured.
func (k *Kernel) Cache() *cache.RedisClient {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cache
}

// SetStore registers the artifact store.
func (k *Kernel) SetStore(s *store.Store) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store = s
	return k
}

// Store returns the artifact store.
func (k *Kernel) Store() *store.Store {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.store
}

// SetToolchain registers the ffmpeg/ffprobe wrapper.
func (k *Kernel) SetToolchain(t *mediatool.Toolchain) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.toolchain = t
	return k
}

// Toolchain returns the ffmpeg/ffprobe wrapper.
func (k *Kernel) Toolchain() *mediatool.Toolchain {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.toolchain
}

// SetRegistry registers the in-memory job registry.
func (k *Kernel) SetRegistry(r *registry.Registry) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.registry = r
	return k
}

// Registry returns the in-memory job registry.
func (k *Kernel) Registry() *registry.Registry {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.registry
}

// SetPipeline registers the job execution pipeline.
func (k *Kernel) SetPipeline(p *pipeline.Pipeline) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pipeline = p
	return k
}

// Pipeline returns the job execution pipeline.
func (k *Kernel) Pipeline() *pipeline.Pipeline {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pipeline
}

// SetRemixEngine registers the on-demand stem mixer.
func (k *Kernel) SetRemixEngine(e *remix.Engine) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.remix = e
	return k
}

// RemixEngine returns the on-demand stem mixer.
func (k *Kernel) RemixEngine() *remix.Engine {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.remix
}

// SetExporter registers the bundle exporter.
func (k *Kernel) SetExporter(e *bundle.Exporter) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.exporter = e
	return k
}

// Exporter returns the bundle exporter.
func (k *Kernel) Exporter() *bundle.Exporter {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.exporter
}

// SetImporter registers the bundle importer.
func (k *Kernel) SetImporter(i *bundle.Importer) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.importer = i
	return k
}

// Importer returns the bundle importer.
func (k *Kernel) Importer() *bundle.Importer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.importer
}

// SetURLAcquirer registers the URL-fetch acquisition backend.
func (k *Kernel) SetURLAcquirer(a acquire.Acquirer) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.urlAcquirer = a
	return k
}

// URLAcquirer returns the URL-fetch acquisition backend.
func (k *Kernel) URLAcquirer() acquire.Acquirer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.urlAcquirer
}

// SetUploadAcquirer registers the direct-upload acquisition backend.
func (k *Kernel) SetUploadAcquirer(a acquire.Acquirer) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.uploadAcquirer = a
	return k
}

// UploadAcquirer returns the direct-upload acquisition backend.
func (k *Kernel) UploadAcquirer() acquire.Acquirer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.uploadAcquirer
}

// SetRateLimiter registers the admission rate limiter.
func (k *Kernel) SetRateLimiter(l ratelimit.Limiter) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rateLimiter = l
	return k
}

// RateLimiter returns the admission rate limiter.
func (k *Kernel) RateLimiter() ratelimit.Limiter {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.rateLimiter
}

// OnCleanup registers a cleanup function invoked during shutdown in
// LIFO order (last registered, first cleaned up).
func (k *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cleanupFuncs = append(k.cleanupFuncs, fn)
	return k
}

// Cleanup runs every registered cleanup function in reverse
// registration order, continuing past individual failures.
func (k *Kernel) Cleanup(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := len(k.cleanupFuncs) - 1; i >= 0; i-- {
		if err := k.cleanupFuncs[i](ctx); err != nil {
			// k.mu is already held, so read the logger field directly
			// rather than through Logger(), which would re-lock it.
			log := k.logger
			if log == nil {
				log = logger.Log
			}
			log.Error("cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}
	return nil
}

// Validate checks that the core services required to serve traffic
// are registered.
func (k *Kernel) Validate() error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var missing []string
	if k.store == nil {
		missing = append(missing, "artifact store")
	}
	if k.registry == nil {
		missing = append(missing, "job registry")
	}
	if k.pipeline == nil {
		missing = append(missing, "job pipeline")
	}
	if k.toolchain == nil {
		missing = append(missing, "media toolchain")
	}

	if len(missing) > 0 {
		return NewInitializationError("missing required dependencies", missing)
	}
	return nil
}
