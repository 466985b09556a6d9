// Package config loads, validates, and saves the viewer's settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/input"
	"github.com/Carmen-Shannon/eduren/engine/logging"
	"github.com/Carmen-Shannon/eduren/engine/renderable"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix prefixes environment overrides, e.g. EDUREN_CAMERA_MOVE_SPEED.
const EnvPrefix = "EDUREN"

// Config holds the complete application configuration.
type Config struct {
	Window   WindowConfig   `mapstructure:"window" yaml:"window"`
	Camera   CameraConfig   `mapstructure:"camera" yaml:"camera"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Scene    SceneConfig    `mapstructure:"scene" yaml:"scene"`
	Log      logging.Config `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`

	// Path is the file the config was read from, empty when only defaults were used.
	Path string `mapstructure:"-" yaml:"-"`
}

type WindowConfig struct {
	Title     string `mapstructure:"title" yaml:"title"`
	Width     int    `mapstructure:"width" yaml:"width"`
	Height    int    `mapstructure:"height" yaml:"height"`
	Resizable bool   `mapstructure:"resizable" yaml:"resizable"`
}

type CameraConfig struct {
	MoveSpeed         float32    `mapstructure:"move_speed" yaml:"move_speed"`
	RotationStep      float32    `mapstructure:"rotation_step" yaml:"rotation_step"`
	ScaleRotationByDt bool       `mapstructure:"scale_rotation_by_dt" yaml:"scale_rotation_by_dt"`
	Position          [3]float32 `mapstructure:"position" yaml:"position,flow"`
	Yaw               float32    `mapstructure:"yaw" yaml:"yaw"`
	Pitch             float32    `mapstructure:"pitch" yaml:"pitch"`
	FovDegrees        float32    `mapstructure:"fov_degrees" yaml:"fov_degrees"`
	Near              float32    `mapstructure:"near" yaml:"near"`
	Far               float32    `mapstructure:"far" yaml:"far"`
}

type InputConfig struct {
	// Bindings maps key names to command names, e.g. w: forward.
	Bindings        map[string]string `mapstructure:"bindings" yaml:"bindings"`
	HasteKeys       []string          `mapstructure:"haste_keys" yaml:"haste_keys,flow"`
	HasteMultiplier float32           `mapstructure:"haste_multiplier" yaml:"haste_multiplier"`
}

type RendererConfig struct {
	PresentMode string     `mapstructure:"present_mode" yaml:"present_mode"`
	MSAA        uint32     `mapstructure:"msaa" yaml:"msaa"`
	ClearColor  [4]float64 `mapstructure:"clear_color" yaml:"clear_color,flow"`
	Software    bool       `mapstructure:"software" yaml:"software"`
}

type EngineConfig struct {
	// FrameLimit caps frames per second; 0 renders uncapped.
	FrameLimit     int  `mapstructure:"frame_limit" yaml:"frame_limit"`
	Profiling      bool `mapstructure:"profiling" yaml:"profiling"`
	PrepareWorkers int  `mapstructure:"prepare_workers" yaml:"prepare_workers"`
	Culling        bool `mapstructure:"culling" yaml:"culling"`
}

type SceneConfig struct {
	Cubes []CubeConfig `mapstructure:"cubes" yaml:"cubes"`
}

type CubeConfig struct {
	Name     string     `mapstructure:"name" yaml:"name"`
	Position [3]float32 `mapstructure:"position" yaml:"position,flow"`
	Scale    float32    `mapstructure:"scale" yaml:"scale"`
	Color    [4]float32 `mapstructure:"color" yaml:"color,flow"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// DefaultConfig returns the built-in settings: a 1280x1280 window, the camera at (0, 0, 2) facing -Z,
// WASD and arrow bindings with shift as haste, vsync, 4x MSAA, a 60 FPS cap, and a single cube at the origin.
func DefaultConfig() *Config {
	camCfg := camera.DefaultConfig()
	bindings := make(map[string]string)
	for code, cmd := range input.DefaultBindings() {
		bindings[common.KeyName(code)] = cmd.String()
	}
	return &Config{
		Window: WindowConfig{
			Title:     "eduRen",
			Width:     1280,
			Height:    1280,
			Resizable: true,
		},
		Camera: CameraConfig{
			MoveSpeed:    camCfg.MoveSpeed,
			RotationStep: camCfg.RotationStep,
			Position:     [3]float32{0, 0, 2},
			Yaw:          -90,
			Pitch:        0,
			FovDegrees:   45,
			Near:         0.1,
			Far:          100,
		},
		Input: InputConfig{
			Bindings:        bindings,
			HasteKeys:       []string{"left_shift", "right_shift"},
			HasteMultiplier: input.DefaultHasteMultiplier,
		},
		Renderer: RendererConfig{
			PresentMode: renderer.PresentModeVSync.String(),
			MSAA:        uint32(renderer.MSAA4x),
			ClearColor:  [4]float64(renderer.DefaultClearColor),
		},
		Engine: EngineConfig{
			FrameLimit:     60,
			PrepareWorkers: 4,
			Culling:        true,
		},
		Scene: SceneConfig{
			Cubes: []CubeConfig{
				{Name: "cube", Scale: 1, Color: [4]float32(renderable.DefaultCubeColor)},
			},
		},
		Log: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9102",
		},
	}
}

// DefaultPaths lists the files Load searches, in order, when no path is given.
func DefaultPaths() []string {
	paths := []string{"eduren.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".eduren", "config.yaml"))
	}
	return paths
}

// Load reads configuration from path, or from the first existing DefaultPaths entry when path is
// empty. EDUREN_* environment variables override file values. A missing file yields the defaults.
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := path
	if resolved == "" {
		for _, candidate := range DefaultPaths() {
			if _, err := os.Stat(candidate); err == nil {
				resolved = candidate
				break
			}
		}
	}

	var used string
	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			used = resolved
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Path = used

	defaults := DefaultConfig()
	if len(cfg.Input.Bindings) == 0 {
		cfg.Input.Bindings = defaults.Input.Bindings
	}
	if cfg.Input.HasteKeys == nil {
		cfg.Input.HasteKeys = defaults.Input.HasteKeys
	}
	if cfg.Scene.Cubes == nil {
		cfg.Scene.Cubes = defaults.Scene.Cubes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every scalar setting so AutomaticEnv can override it. Bindings, haste keys,
// and cubes are filled after unmarshaling so file values replace them instead of merging.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.resizable", d.Window.Resizable)

	v.SetDefault("camera.move_speed", d.Camera.MoveSpeed)
	v.SetDefault("camera.rotation_step", d.Camera.RotationStep)
	v.SetDefault("camera.scale_rotation_by_dt", d.Camera.ScaleRotationByDt)
	v.SetDefault("camera.position", d.Camera.Position[:])
	v.SetDefault("camera.yaw", d.Camera.Yaw)
	v.SetDefault("camera.pitch", d.Camera.Pitch)
	v.SetDefault("camera.fov_degrees", d.Camera.FovDegrees)
	v.SetDefault("camera.near", d.Camera.Near)
	v.SetDefault("camera.far", d.Camera.Far)

	v.SetDefault("input.haste_multiplier", d.Input.HasteMultiplier)

	v.SetDefault("renderer.present_mode", d.Renderer.PresentMode)
	v.SetDefault("renderer.msaa", d.Renderer.MSAA)
	v.SetDefault("renderer.clear_color", d.Renderer.ClearColor[:])
	v.SetDefault("renderer.software", d.Renderer.Software)

	v.SetDefault("engine.frame_limit", d.Engine.FrameLimit)
	v.SetDefault("engine.profiling", d.Engine.Profiling)
	v.SetDefault("engine.prepare_workers", d.Engine.PrepareWorkers)
	v.SetDefault("engine.culling", d.Engine.Culling)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.console", d.Log.Console)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks every section and reports the first problem wrapped in ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return invalid("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Camera.MoveSpeed <= 0:
		return invalid("camera.move_speed must be positive, got %v", c.Camera.MoveSpeed)
	case c.Camera.RotationStep <= 0:
		return invalid("camera.rotation_step must be positive, got %v", c.Camera.RotationStep)
	case c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180:
		return invalid("camera.fov_degrees must be in (0, 180), got %v", c.Camera.FovDegrees)
	case c.Camera.Near <= 0:
		return invalid("camera.near must be positive, got %v", c.Camera.Near)
	case c.Camera.Far <= c.Camera.Near:
		return invalid("camera.far (%v) must be greater than camera.near (%v)", c.Camera.Far, c.Camera.Near)
	case c.Input.HasteMultiplier <= 0:
		return invalid("input.haste_multiplier must be positive, got %v", c.Input.HasteMultiplier)
	case c.Engine.FrameLimit < 0:
		return invalid("engine.frame_limit must not be negative, got %d", c.Engine.FrameLimit)
	case c.Engine.PrepareWorkers < 0:
		return invalid("engine.prepare_workers must not be negative, got %d", c.Engine.PrepareWorkers)
	case !renderer.MSAASampleCount(c.Renderer.MSAA).Valid():
		return invalid("renderer.msaa must be 1, 4, 8 or 16, got %d", c.Renderer.MSAA)
	}
	if _, err := renderer.PresentModeFromString(c.Renderer.PresentMode); err != nil {
		return invalid("renderer.present_mode: %v", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	if _, _, err := c.Bindings(); err != nil {
		return invalid("input: %v", err)
	}
	for i, cube := range c.Scene.Cubes {
		if cube.Scale <= 0 {
			return invalid("scene.cubes[%d] (%q): scale must be positive, got %v", i, cube.Name, cube.Scale)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// CameraConfig converts the camera section into the camera's movement tuning.
func (c *Config) CameraConfig() camera.Config {
	return camera.Config{
		MoveSpeed:         c.Camera.MoveSpeed,
		RotationStep:      c.Camera.RotationStep,
		ScaleRotationByDt: c.Camera.ScaleRotationByDt,
	}
}

// CameraOptions returns the builder options for a camera matching the camera section.
func (c *Config) CameraOptions() []camera.CameraBuilderOption {
	return []camera.CameraBuilderOption{
		camera.WithConfig(c.CameraConfig()),
		camera.WithPosition(mgl32.Vec3(c.Camera.Position)),
		camera.WithYawPitch(c.Camera.Yaw, c.Camera.Pitch),
		camera.WithFov(mgl32.DegToRad(c.Camera.FovDegrees)),
		camera.WithNear(c.Camera.Near),
		camera.WithFar(c.Camera.Far),
		camera.WithAspect(float32(c.Window.Width) / float32(c.Window.Height)),
	}
}

// Bindings resolves the input section's key and command names.
//
// Returns:
//   - map[uint32]camera.Command: key codes mapped to commands
//   - []uint32: the haste key codes
//   - error: the first unknown key or command name
func (c *Config) Bindings() (map[uint32]camera.Command, []uint32, error) {
	bindings, err := input.BindingsFromNames(c.Input.Bindings)
	if err != nil {
		return nil, nil, err
	}
	haste, err := input.KeysFromNames(c.Input.HasteKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("haste key: %w", err)
	}
	return bindings, haste, nil
}

// MapperOptions returns the builder options for an input mapper matching the input section.
// It must only be called on a validated config.
func (c *Config) MapperOptions() []input.MapperBuilderOption {
	bindings, haste, _ := c.Bindings()
	return []input.MapperBuilderOption{
		input.WithBindings(bindings),
		input.WithHasteKeys(haste...),
		input.WithHasteMultiplier(c.Input.HasteMultiplier),
	}
}

// ClearColor returns the renderer's clear color.
func (c *Config) ClearColor() renderer.ClearColor {
	return renderer.ClearColor(c.Renderer.ClearColor)
}

// PresentMode returns the parsed present mode, falling back to vsync.
func (c *Config) PresentMode() renderer.PresentMode {
	mode, err := renderer.PresentModeFromString(c.Renderer.PresentMode)
	if err != nil {
		return renderer.PresentModeVSync
	}
	return mode
}

// MSAA returns the configured sample count.
func (c *Config) MSAA() renderer.MSAASampleCount {
	return renderer.MSAASampleCount(c.Renderer.MSAA)
}

// Options returns the builder options for a cube matching the entry.
func (c CubeConfig) Options() []renderable.CubeBuilderOption {
	return []renderable.CubeBuilderOption{
		renderable.WithTransform(mgl32.Vec3(c.Position), c.Scale),
		renderable.WithColor(mgl32.Vec4(c.Color)),
	}
}
