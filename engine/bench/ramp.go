// Package bench ramps the number of rendered cubes until the frame rate falls below a floor.
package bench

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Settings controls how a Ramp grows.
type Settings struct {
	// Initial is the cube count of the first step.
	Initial int

	// Factor multiplies the count after each step that stays above Threshold.
	Factor float64

	// MaxStep caps how many cubes a single step may add.
	MaxStep int

	// MaxCount stops the ramp once reached. Zero means no limit.
	MaxCount int

	// Threshold is the FPS floor. A step averaging below it ends the ramp.
	Threshold float64

	// Interval is how long each step is measured.
	Interval time.Duration
}

// DefaultSettings returns the settings used by the bench command.
func DefaultSettings() Settings {
	return Settings{
		Initial:   100,
		Factor:    1.5,
		MaxStep:   10_000,
		Threshold: 30,
		Interval:  5 * time.Second,
	}
}

// Sample is the average frame rate measured for one step.
type Sample struct {
	Count int
	FPS   float64
}

// Result summarizes a finished or interrupted ramp.
type Result struct {
	Samples []Sample

	// Best is the highest count whose step stayed at or above the threshold.
	Best Sample

	// Final is the last measured step. It is below the threshold unless MaxCount ended the ramp.
	Final Sample
}

// Ramp measures frames per step and decides when to grow. It is not safe for concurrent use;
// the engine loop drives it from the render callback.
type Ramp struct {
	settings Settings
	count    int
	start    time.Time
	frames   int
	done     bool
	result   Result
}

// NewRamp starts measuring the first step at now. Invalid settings fall back to DefaultSettings field by field.
func NewRamp(s Settings, now time.Time) *Ramp {
	d := DefaultSettings()
	if s.Initial <= 0 {
		s.Initial = d.Initial
	}
	if s.Factor <= 1 {
		s.Factor = d.Factor
	}
	if s.MaxStep <= 0 {
		s.MaxStep = d.MaxStep
	}
	if s.Threshold <= 0 {
		s.Threshold = d.Threshold
	}
	if s.Interval <= 0 {
		s.Interval = d.Interval
	}
	if s.MaxCount < 0 {
		s.MaxCount = 0
	}
	return &Ramp{settings: s, count: s.Initial, start: now}
}

// Settings returns the effective settings.
func (r *Ramp) Settings() Settings {
	return r.settings
}

// Count returns the number of cubes the current step should render.
func (r *Ramp) Count() int {
	return r.count
}

// Done reports whether the ramp has finished.
func (r *Ramp) Done() bool {
	return r.done
}

// Frame records one rendered frame. When the step interval has elapsed it samples the average FPS
// and either finishes the ramp or returns how many cubes to add for the next step.
// Call Restart after spawning so spawn time is not measured.
func (r *Ramp) Frame(now time.Time) (grow int, done bool) {
	if r.done {
		return 0, true
	}
	r.frames++
	elapsed := now.Sub(r.start)
	if elapsed < r.settings.Interval {
		return 0, false
	}

	sample := Sample{Count: r.count, FPS: float64(r.frames) / elapsed.Seconds()}
	r.result.Samples = append(r.result.Samples, sample)
	r.result.Final = sample
	if sample.FPS < r.settings.Threshold {
		r.done = true
		return 0, true
	}
	r.result.Best = sample

	if r.settings.MaxCount > 0 && r.count >= r.settings.MaxCount {
		r.done = true
		return 0, true
	}

	next := int(math.Ceil(float64(r.count) * r.settings.Factor))
	grow = min(next-r.count, r.settings.MaxStep)
	if r.settings.MaxCount > 0 {
		grow = min(grow, r.settings.MaxCount-r.count)
	}
	r.count += grow
	r.Restart(now)
	return grow, false
}

// Restart begins measuring the current step at now.
func (r *Ramp) Restart(now time.Time) {
	r.start = now
	r.frames = 0
}

// Result returns the samples so far.
func (r *Ramp) Result() Result {
	res := r.result
	res.Samples = append([]Sample(nil), r.result.Samples...)
	return res
}

// GridPosition places cube idx on an XZ grid of side cubes per row, centered on the origin.
// Full layers stack upward.
func GridPosition(idx, side int, spacing float32) mgl32.Vec3 {
	if side <= 0 {
		side = 1
	}
	col := idx % side
	row := (idx / side) % side
	layer := idx / (side * side)
	half := float32(side-1) / 2
	return mgl32.Vec3{
		(float32(col) - half) * spacing,
		float32(layer) * spacing,
		(float32(row) - half) * spacing,
	}
}

var palette = []mgl32.Vec4{
	{1, 0, 0, 1},
	{0, 1, 0, 1},
	{0, 0, 1, 1},
	{1, 1, 0, 1},
	{1, 0, 1, 1},
	{0, 1, 1, 1},
}

// Color cycles cube idx through six saturated colors.
func Color(idx int) mgl32.Vec4 {
	return palette[idx%len(palette)]
}
