package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, camera.DefaultConfig(), cfg.CameraConfig())
	assert.Equal(t, renderer.DefaultClearColor, cfg.ClearColor())
	assert.Equal(t, renderer.PresentModeVSync, cfg.PresentMode())
	assert.Equal(t, renderer.MSAA4x, cfg.MSAA())

	bindings, haste, err := cfg.Bindings()
	require.NoError(t, err)
	assert.Len(t, bindings, 8)
	assert.Equal(t, camera.Forward, bindings[common.KeyW])
	assert.Equal(t, camera.YawRight, bindings[common.KeyRight])
	assert.ElementsMatch(t, []uint32{common.KeyLeftShift, common.KeyRightShift}, haste)
}

func TestLoadMissingExplicitFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	want := DefaultConfig()
	assert.Equal(t, want.Camera, cfg.Camera)
	assert.Equal(t, want.Input, cfg.Input)
	assert.Equal(t, want.Scene, cfg.Scene)
	assert.Equal(t, want.Window, cfg.Window)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "eduren.yaml", `
camera:
  move_speed: 8
  position: [1, 2, 3]
input:
  bindings:
    i: forward
    k: back
  haste_keys: []
renderer:
  present_mode: uncapped
  msaa: 1
scene:
  cubes:
    - name: a
      position: [0, 0, -5]
      scale: 2
      color: [1, 0, 0, 1]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, float32(8), cfg.Camera.MoveSpeed)
	assert.Equal(t, camera.DefaultRotationStep, cfg.Camera.RotationStep, "unset keys keep defaults")
	assert.Equal(t, [3]float32{1, 2, 3}, cfg.Camera.Position)
	assert.Equal(t, renderer.PresentModeUncapped, cfg.PresentMode())
	assert.Equal(t, renderer.MSAAOff, cfg.MSAA())

	bindings, haste, err := cfg.Bindings()
	require.NoError(t, err)
	assert.Len(t, bindings, 2, "file bindings replace the defaults")
	assert.Empty(t, haste)

	require.Len(t, cfg.Scene.Cubes, 1)
	assert.Equal(t, CubeConfig{Name: "a", Position: [3]float32{0, 0, -5}, Scale: 2, Color: [4]float32{1, 0, 0, 1}}, cfg.Scene.Cubes[0])
	assert.Len(t, cfg.Scene.Cubes[0].Options(), 2)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EDUREN_CAMERA_MOVE_SPEED", "12.5")
	t.Setenv("EDUREN_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, float32(12.5), cfg.Camera.MoveSpeed)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "eduren.yaml", "camera:\n  move_speed: -1\n")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "eduren.yaml", "camera: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero speed", func(c *Config) { c.Camera.MoveSpeed = 0 }},
		{"negative step", func(c *Config) { c.Camera.RotationStep = -1 }},
		{"fov too wide", func(c *Config) { c.Camera.FovDegrees = 180 }},
		{"zero near", func(c *Config) { c.Camera.Near = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = c.Camera.Near }},
		{"zero haste", func(c *Config) { c.Input.HasteMultiplier = 0 }},
		{"negative frame limit", func(c *Config) { c.Engine.FrameLimit = -1 }},
		{"bad msaa", func(c *Config) { c.Renderer.MSAA = 3 }},
		{"bad present mode", func(c *Config) { c.Renderer.PresentMode = "triple" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown key", func(c *Config) { c.Input.Bindings = map[string]string{"f13": "forward"} }},
		{"unknown command", func(c *Config) { c.Input.Bindings = map[string]string{"w": "jump"} }},
		{"unknown haste key", func(c *Config) { c.Input.HasteKeys = []string{"ctrl"} }},
		{"zero cube scale", func(c *Config) { c.Scene.Cubes[0].Scale = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Camera.MoveSpeed = 3
	cfg.Input.Bindings = map[string]string{"up": "forward"}
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(3), got.Camera.MoveSpeed)
	assert.Equal(t, map[string]string{"up": "forward"}, got.Input.Bindings)
	assert.Equal(t, cfg.Renderer, got.Renderer)
}

func TestCameraOptionsBuildConfiguredCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera.Position = [3]float32{4, 5, 6}
	cfg.Camera.Pitch = 120

	cam := camera.NewCamera(cfg.CameraOptions()...)
	pos := cam.Position()
	assert.Equal(t, float32(4), pos.X())
	_, pitch := cam.YawPitch()
	assert.Equal(t, camera.MaxPitch, pitch)
	assert.InDelta(t, 1.0, cam.Aspect(), 1e-6)
}
