package profiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultWindowSize is the number of most recent frames Stats covers.
const DefaultWindowSize = 100

// FrameStats summarizes the frame times in the rolling window.
type FrameStats struct {
	Min     time.Duration
	Avg     time.Duration
	Max     time.Duration
	Samples int
}

// Profiler tracks frame rate, frame time, and memory statistics for performance monitoring.
// Stats are logged at a configurable interval and exported as Prometheus metrics.
type Profiler struct {
	mu *sync.Mutex

	logger         zerolog.Logger
	registry       *prometheus.Registry
	updateInterval time.Duration
	now            func() time.Time

	// rolling window of frame durations; next is the slot the next sample overwrites
	window []time.Duration
	next   int
	filled bool

	frameCount     int
	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	frameSeconds prometheus.Histogram
	fps          prometheus.Gauge
	heapBytes    prometheus.Gauge
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second and the rolling
// window to DefaultWindowSize frames. Without WithRegistry a private registry is created.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         zerolog.Nop(),
		updateInterval: time.Second,
		now:            time.Now,
		window:         make([]time.Duration, DefaultWindowSize),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.registry == nil {
		p.registry = prometheus.NewRegistry()
	}
	p.logger = p.logger.With().Str("component", "profiler").Logger()
	p.lastTime = p.now()

	factory := promauto.With(p.registry)
	p.frameSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "eduren_frame_seconds",
		Help:    "Frame duration in seconds",
		Buckets: []float64{0.001, 0.004, 0.008, 0.0167, 0.033, 0.05, 0.1, 0.25},
	})
	p.fps = factory.NewGauge(prometheus.GaugeOpts{
		Name: "eduren_fps",
		Help: "Frames per second over the last update interval",
	})
	p.heapBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "eduren_heap_bytes",
		Help: "Bytes of allocated heap objects",
	})
	return p
}

// Tick should be called once per frame with that frame's duration.
// Logs FPS, frame times, and memory statistics when the update interval has elapsed.
//
// Parameters:
//   - frame: how long the frame took
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(frame time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.window[p.next] = frame
	p.next = (p.next + 1) % len(p.window)
	if p.next == 0 {
		p.filled = true
	}
	p.frameSeconds.Observe(frame.Seconds())

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	p.fps.Set(fps)

	runtime.ReadMemStats(&p.memStats)
	p.heapBytes.Set(float64(p.memStats.Alloc))

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	stats := p.statsLocked()
	p.logger.Info().
		Float64("fps", fps).
		Float64("frame_min_ms", ms(stats.Min)).
		Float64("frame_avg_ms", ms(stats.Avg)).
		Float64("frame_max_ms", ms(stats.Max)).
		Float64("heap_mb", float64(p.memStats.Alloc)/1024/1024).
		Float64("alloc_rate_mb_s", allocRateMB).
		Uint32("gc", gcCount).
		Uint64("gc_last_us", lastPauseUs).
		Uint64("gc_max_us", maxPauseUs).
		Float64("sys_mb", float64(p.memStats.Sys)/1024/1024).
		Msg("frame stats")

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns min, average, and max frame time over the rolling window.
//
// Returns:
//   - FrameStats: zero values when no frame has been recorded
func (p *Profiler) Stats() FrameStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statsLocked()
}

func (p *Profiler) statsLocked() FrameStats {
	n := p.next
	if p.filled {
		n = len(p.window)
	}
	if n == 0 {
		return FrameStats{}
	}
	stats := FrameStats{Min: p.window[0], Max: p.window[0], Samples: n}
	var total time.Duration
	for _, d := range p.window[:n] {
		total += d
		stats.Min = min(stats.Min, d)
		stats.Max = max(stats.Max, d)
	}
	stats.Avg = total / time.Duration(n)
	return stats
}

// Registry returns the registry the profiler's metrics are registered on.
func (p *Profiler) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler that serves the profiler's registry in the Prometheus text format.
func (p *Profiler) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler at /metrics on addr until ctx is cancelled.
//
// Parameters:
//   - ctx: cancelling it shuts the server down
//   - addr: the listen address, e.g. ":9102"
//
// Returns:
//   - error: nil after a clean shutdown, otherwise the listen error
func (p *Profiler) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		p.logger.Info().Str("addr", addr).Msg("metrics listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
