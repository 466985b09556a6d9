package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Frame is the per-frame data handed to every renderable. View is the single camera
// snapshot taken for the frame; every renderable sees the same value.
type Frame struct {
	Index     uint64
	DeltaTime float32
	View      camera.FrameView
}

// FrameTarget opens, closes and presents a frame. The renderer satisfies it.
type FrameTarget interface {
	// BeginFrame acquires the next surface texture and opens a render pass.
	//
	// Returns:
	//   - error: error if the surface could not be acquired
	BeginFrame() error

	// EndFrame closes the render pass and submits the recorded commands.
	EndFrame()

	// Present displays the submitted frame.
	Present()
}

// Renderable is anything the scene can draw.
type Renderable interface {
	// Name identifies the renderable within its scene.
	Name() string

	// Draw records the renderable's draw commands for the frame.
	// Called between BeginFrame and EndFrame, in scene order.
	//
	// Parameters:
	//   - frame: the current frame
	//
	// Returns:
	//   - error: error if the draw failed
	Draw(frame Frame) error
}

// Preparer is implemented by renderables that do CPU work before the render pass opens.
// Prepare calls for one frame may run concurrently with each other.
type Preparer interface {
	Prepare(frame Frame) error
}

// Bounded is implemented by renderables that expose a bounding sphere for culling.
type Bounded interface {
	Bounds() (center mgl32.Vec3, radius float32)
}

// ErrReleased is returned by Render after Release.
var ErrReleased = errors.New("scene: released")

// FrameStats summarizes one Render call. A renderable whose Prepare panicked is counted
// in Failed and is not drawn.
type FrameStats struct {
	Drawn  int
	Culled int
	Failed int
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	cam    camera.Camera
	target FrameTarget

	renderables []Renderable
	frameIndex  uint64
	culling     bool

	logger zerolog.Logger

	preparePool    worker.DynamicWorkerPool
	prepareWorkers int
	released       bool
}

// Scene owns an ordered list of renderables and a camera, and draws them once per frame.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Add appends renderables to the end of the draw order.
	//
	// Parameters:
	//   - renderables: the renderables to add
	Add(renderables ...Renderable)

	// Remove removes the first renderable with the given name.
	//
	// Parameters:
	//   - name: the renderable's name
	//
	// Returns:
	//   - bool: true if a renderable was removed
	Remove(name string) bool

	// Renderables returns a copy of the renderables in draw order.
	Renderables() []Renderable

	// Len returns the number of renderables.
	Len() int

	// Culling returns whether frustum culling is enabled.
	Culling() bool

	// SetCulling enables or disables frustum culling of Bounded renderables.
	SetCulling(enabled bool)

	// Render draws one frame. The camera is read exactly once, before any renderable
	// is prepared or drawn, and renderables are visited in insertion order.
	// Inactive scenes return zero stats and no error.
	//
	// Parameters:
	//   - dt: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - FrameStats: counts of drawn, culled and failed renderables
	//   - error: error if the frame could not be started, or ErrReleased
	Render(dt float32) (FrameStats, error)

	// Release stops the prepare worker pool. It is safe to call more than once.
	Release()
}

var _ Scene = &scene{}

// NewScene creates a new Scene. The camera and target are required and NewScene
// panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to view the scene through (must not be nil)
//   - target: the frame target to render into (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, target FrameTarget, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if target == nil {
		panic("scene: NewScene requires a non-nil FrameTarget")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		cam:            cam,
		target:         target,
		logger:         zerolog.Nop(),
		prepareWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Created after options so WithPrepareWorkers can override the default.
	s.preparePool = worker.NewDynamicWorkerPool(s.prepareWorkers, 256, 1*time.Second)
	s.logger = s.logger.With().Str("component", "scene").Str("scene", name).Logger()

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Add(renderables ...Renderable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range renderables {
		if r != nil {
			s.renderables = append(s.renderables, r)
		}
	}
}

func (s *scene) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.renderables, func(r Renderable) bool { return r.Name() == name })
	if i < 0 {
		return false
	}
	s.renderables = slices.Delete(s.renderables, i, i+1)
	return true
}

func (s *scene) Renderables() []Renderable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.renderables)
}

func (s *scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renderables)
}

func (s *scene) Culling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.culling
}

func (s *scene) SetCulling(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.culling = enabled
}

func (s *scene) Render(dt float32) (FrameStats, error) {
	var stats FrameStats

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return stats, ErrReleased
	}
	if !s.active {
		s.mu.Unlock()
		return stats, nil
	}
	s.frameIndex++
	frame := Frame{
		Index:     s.frameIndex,
		DeltaTime: dt,
		View:      s.cam.Snapshot(),
	}
	list := slices.Clone(s.renderables)
	culling := s.culling
	s.mu.Unlock()

	panicked := s.prepare(frame, list)

	if err := s.target.BeginFrame(); err != nil {
		return stats, fmt.Errorf("scene %q: begin frame: %w", s.name, err)
	}

	var frustum common.Frustum
	if culling {
		frustum = common.ExtractFrustum(frame.View.ViewProjection)
	}

	for i, r := range list {
		if panicked[i] {
			stats.Failed++
			continue
		}
		if culling {
			if b, ok := r.(Bounded); ok {
				center, radius := b.Bounds()
				if !frustum.ContainsSphere(center, radius) {
					stats.Culled++
					continue
				}
			}
		}
		if err := r.Draw(frame); err != nil {
			stats.Failed++
			s.logger.Error().Err(err).Str("renderable", r.Name()).Uint64("frame", frame.Index).Msg("draw failed")
			continue
		}
		stats.Drawn++
	}

	s.target.EndFrame()
	s.target.Present()
	return stats, nil
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.preparePool.Stop()
}

// prepare fans Prepare calls out to the worker pool and waits for all of them.
// A WaitGroup is the per-frame barrier; the pool's own Wait blocks until workers idle out.
// Workers do not recover, so a panic is caught here and reported by index in the result.
func (s *scene) prepare(frame Frame, list []Renderable) []bool {
	panicked := make([]bool, len(list))
	var wg sync.WaitGroup
	for i, r := range list {
		p, ok := r.(Preparer)
		if !ok {
			continue
		}
		wg.Add(1)
		name := r.Name()
		s.preparePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (_ any, err error) {
				defer wg.Done()
				defer func() {
					if rec := recover(); rec != nil {
						panicked[i] = true
						err = fmt.Errorf("prepare panicked: %v", rec)
						s.logger.Error().Err(err).Str("renderable", name).Uint64("frame", frame.Index).Msg("prepare failed")
					}
				}()
				if err := p.Prepare(frame); err != nil {
					s.logger.Warn().Err(err).Str("renderable", name).Uint64("frame", frame.Index).Msg("prepare failed")
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return panicked
}
