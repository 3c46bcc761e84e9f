package walcache

import (
	"log/slog"

	"github.com/hupe1980/walcache/commitstate"
	"github.com/hupe1980/walcache/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      Compression
	controller       *resource.Controller
	resourceConfig   *resource.Config
	commitState      commitstate.Source
}

// Option configures a Reader.
type Option func(*options)

// WithLogger configures structured logging for cache operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := walcache.NewJSONLogger(slog.LevelInfo)
//	r := walcache.NewReader(dev, walcache.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &walcache.BasicMetricsCollector{}
//	r := walcache.NewReader(dev, walcache.WithMetricsCollector(metrics))
//	// ... use r ...
//	stats := metrics.GetStats()
//	fmt.Printf("hit ratio: %.2f\n", stats.HitRatio)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression stores cached payloads compressed. Lookups decompress
// transparently.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResourceController shares a resource.Controller between readers, so
// that several logs draw on one memory budget and one device read limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithResourceConfig creates a private resource.Controller from cfg.
// It is ignored when WithResourceController is also given.
//
// Once the memory limit is reached the cache is disabled rather than evicted;
// size the limit for the working set.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = &cfg
	}
}

// WithCommitStateSource configures where ReadAtCurrent takes the commit-state
// sequence number from.
func WithCommitStateSource(src commitstate.Source) Option {
	return func(o *options) {
		o.commitState = src
	}
}

func applyOptions(optFns []Option) options {
	o := options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.controller == nil && o.resourceConfig != nil {
		o.controller = resource.NewController(*o.resourceConfig)
	}
	return o
}
