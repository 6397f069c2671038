// Package backend provides the stem-separation service: a media
// processing pipeline that acquires audio/video from an upload or a
// URL, separates it into instrumental stems, lets a caller remix the
// stems into a custom mix, and exports the results as a bundle.
//
// The entry points live under cmd/: cmd/server runs the HTTP API,
// cmd/cli (stemctl) is a command-line client for it. The domain logic
// is organized into internal/ subpackages:
//
//   - internal/acquire: fetching source media from an upload or URL
//   - internal/mediatool: ffmpeg/ffprobe wrappers for extraction and encoding
//   - internal/separator: stem separation backends (model-backed, fixture-backed)
//   - internal/pipeline: the worker pool driving acquire -> extract -> separate
//   - internal/registry: job bookkeeping and concurrency accounting
//   - internal/remix: recombining stems into a custom mix
//   - internal/bundle: exporting/importing job results as zip bundles
//   - internal/storage: optional S3 mirroring of exported bundles
//   - internal/handlers, internal/router: the HTTP surface
//   - internal/kernel: dependency wiring for the above
//   - internal/cache, internal/ratelimit: Redis-backed caching and rate limiting
//   - internal/config, internal/logger, internal/metrics, internal/telemetry,
//     internal/middleware: ambient concerns (configuration, structured
//     logging, Prometheus metrics, OpenTelemetry tracing, HTTP middleware)
//
// See the individual package documentation for detailed API reference.
package backend
