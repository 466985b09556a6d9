package profiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithLogger sets the logger frame stats are written to.
func WithLogger(logger zerolog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithUpdateInterval sets how often stats are logged. Non-positive values are ignored.
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithRegistry registers the profiler's metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.registry = reg
	}
}

// WithWindowSize sets how many recent frames Stats covers. Non-positive values are ignored.
func WithWindowSize(frames int) ProfilerBuilderOption {
	return func(p *Profiler) {
		if frames > 0 {
			p.window = make([]time.Duration, frames)
		}
	}
}

func withClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
