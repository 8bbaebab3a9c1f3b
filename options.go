package detexec

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// config holds resolved [Executor] construction options.
type config struct {
	clock          Clock
	rng            RNG
	logger         *Logger
	tracerProvider trace.TracerProvider
	timeLimit      time.Duration // zero means unlimited
}

// Option configures an [Executor] constructed with [New].
type Option interface {
	apply(*config)
}

// optionImpl is the concrete implementation behind every With* constructor
// below: each one just closes over a field assignment.
type optionImpl struct {
	applyFunc func(*config)
}

func (o *optionImpl) apply(c *config) { o.applyFunc(c) }

// WithClock overrides the default [VirtualClock] used to advance virtual
// time. Most callers should accept the default; this exists for tests that
// need to inject a clock pre-loaded with specific timer events.
func WithClock(clock Clock) Option {
	return &optionImpl{func(c *config) { c.clock = clock }}
}

// WithLogger attaches a structured [Logger] that receives node and task
// lifecycle events. The default is a no-op logger.
func WithLogger(logger *Logger) Option {
	return &optionImpl{func(c *config) { c.logger = logger }}
}

// WithTracerProvider attaches an OpenTelemetry [trace.TracerProvider] used
// to create diagnostic spans for nodes and tasks. The default is
// [noop.NewTracerProvider]. Tracing is purely observational: nothing in the
// scheduler branches on span state.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return &optionImpl{func(c *config) { c.tracerProvider = provider }}
}

// WithRNG overrides the default seeded [RNG]. Most callers should rely on
// the seed passed to [New]; this exists for tests that need a scripted or
// degenerate RNG.
func WithRNG(rng RNG) Option {
	return &optionImpl{func(c *config) { c.rng = rng }}
}

// WithTimeLimit configures a virtual-time ceiling: [BlockOn] fails
// fatally with [ErrTimeLimitExceeded] if elapsed virtual time ever exceeds
// it. Zero (the default) means unlimited.
func WithTimeLimit(limit time.Duration) Option {
	return &optionImpl{func(c *config) { c.timeLimit = limit }}
}

// resolveConfig applies opts over the documented defaults. seed drives the
// default [RNG] when [WithRNG] is not supplied.
func resolveConfig(seed uint64, opts []Option) *config {
	c := &config{
		clock:          NewVirtualClock(),
		logger:         NewNoopLogger(),
		tracerProvider: noop.NewTracerProvider(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		opt.apply(c)
	}
	if c.rng == nil {
		c.rng = NewRNG(seed)
	}
	return c
}
