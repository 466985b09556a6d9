package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine"
	"github.com/Carmen-Shannon/eduren/engine/bench"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/config"
	"github.com/Carmen-Shannon/eduren/engine/input"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduren.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Camera, cfg.Camera)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduren.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  move_speed: 2\n"), 0o644))

	_, err := execute(t, "config", "init", path)
	require.Error(t, err)

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduren.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  move_speed: 7\n"), 0o644))

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# loaded from "+path)
	assert.Contains(t, out, "move_speed: 7")
	assert.Contains(t, out, "rotation_step: 1")
}

func TestConfigShowRejectsBadLogLevel(t *testing.T) {
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud")
	require.ErrorIs(t, err, config.ErrInvalid)
}

// liveRenderer records the settings hot reload pushes to the renderer.
type liveRenderer struct {
	renderer.Renderer
	clear   renderer.ClearColor
	present renderer.PresentMode
}

func (r *liveRenderer) SetClearColor(c renderer.ClearColor)   { r.clear = c }
func (r *liveRenderer) SetPresentMode(m renderer.PresentMode) { r.present = m }
func (r *liveRenderer) BeginFrame() error                     { return nil }
func (r *liveRenderer) EndFrame()                             {}
func (r *liveRenderer) Present()                              {}

func newLiveObjects(t *testing.T) (camera.Camera, input.Mapper, *liveRenderer, scene.Scene, engine.Engine) {
	t.Helper()
	cam := camera.NewCamera()
	r := &liveRenderer{}
	sc := scene.NewScene("main", cam, r, scene.WithPrepareWorkers(1))
	t.Cleanup(sc.Release)
	return cam, input.NewMapper(), r, sc, engine.NewEngine()
}

func TestApplyConfigUpdatesLiveObjects(t *testing.T) {
	cam, mapper, r, sc, eng := newLiveObjects(t)

	cfg := config.DefaultConfig()
	cfg.Camera.MoveSpeed = 9
	cfg.Input.Bindings = map[string]string{"e": "forward"}
	cfg.Input.HasteKeys = []string{"q"}
	cfg.Input.HasteMultiplier = 2
	cfg.Renderer.PresentMode = renderer.PresentModeUncapped.String()
	cfg.Engine.Culling = true

	applyConfig(cfg, cam, mapper, r, sc, eng, zerolog.Nop())

	assert.Equal(t, float32(9), cam.Config().MoveSpeed)
	assert.Equal(t, map[uint32]camera.Command{common.KeyE: camera.Forward}, mapper.Bindings())
	assert.Equal(t, float32(2), mapper.HasteMultiplier())
	assert.Equal(t, renderer.PresentModeUncapped, r.present)
	assert.Equal(t, cfg.ClearColor(), r.clear)
	assert.True(t, sc.Culling())

	mapper.KeyDown(common.KeyQ)
	mapper.KeyDown(common.KeyE)
	before := cam.Position()
	mapper.Apply(cam, 0.1)
	assert.InDelta(t, 9*0.1*2, before.Sub(cam.Position()).Len(), 1e-4)
}

func TestApplyConfigKeepsBindingsOnBadKeyName(t *testing.T) {
	cam, mapper, r, sc, eng := newLiveObjects(t)
	want := mapper.Bindings()

	cfg := config.DefaultConfig()
	cfg.Input.Bindings = map[string]string{"not-a-key": "forward"}
	cfg.Input.HasteMultiplier = 4

	var logs bytes.Buffer
	applyConfig(cfg, cam, mapper, r, sc, eng, zerolog.New(&logs))

	assert.Equal(t, want, mapper.Bindings())
	assert.Equal(t, float32(4), mapper.HasteMultiplier())
	assert.Contains(t, logs.String(), "keeping current key bindings")
	assert.Contains(t, logs.String(), "not-a-key")
}

func TestStatusTitle(t *testing.T) {
	title := statusTitle("eduRen", camera.NewCamera())
	assert.Equal(t, "eduRen | pos 0.00 0.00 2.00 | yaw -90.0 pitch 0.0", title)
}

func TestPrintBenchResult(t *testing.T) {
	s := bench.DefaultSettings()

	var out bytes.Buffer
	printBenchResult(&out, s, bench.Result{})
	assert.Contains(t, out.String(), "no complete step")

	out.Reset()
	printBenchResult(&out, s, bench.Result{
		Samples: []bench.Sample{{Count: 100, FPS: 120}, {Count: 150, FPS: 20}},
		Best:    bench.Sample{Count: 100, FPS: 120},
		Final:   bench.Sample{Count: 150, FPS: 20},
	})
	assert.Contains(t, out.String(), "       150      20.0      50.00")
	assert.Contains(t, out.String(), "best sustained: 100 cubes at 120.0 FPS")

	out.Reset()
	printBenchResult(&out, s, bench.Result{Samples: []bench.Sample{{Count: 100, FPS: 10}}})
	assert.Contains(t, out.String(), "no step reached 30 FPS")
}

func TestBenchFlagsRegistered(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"bench"})
	require.NoError(t, err)
	for _, name := range []string{"initial", "factor", "max-step", "max", "threshold", "interval"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
