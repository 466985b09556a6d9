package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/eduren/engine"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/config"
	"github.com/Carmen-Shannon/eduren/engine/input"
	"github.com/Carmen-Shannon/eduren/engine/profiler"
	"github.com/Carmen-Shannon/eduren/engine/renderable"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/Carmen-Shannon/eduren/engine/window"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const titleRefresh = 250 * time.Millisecond

// runViewer builds the window, renderer, scene, and engine from cfg and runs until ctx is cancelled
// or the window closes. It must run on the main OS thread.
func runViewer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithResizable(cfg.Window.Resizable),
	)
	defer win.Close()

	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(cfg.PresentMode()),
		renderer.WithMSAA(cfg.MSAA()),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.Software),
		renderer.WithClearColor(cfg.ClearColor()),
		renderer.WithLogger(logger),
	)
	defer r.Release()

	// the framebuffer can differ from the configured size on high-DPI displays
	camOpts := cfg.CameraOptions()
	if win.Height() > 0 {
		camOpts = append(camOpts, camera.WithAspect(float32(win.Width())/float32(win.Height())))
	}
	cam := camera.NewCamera(camOpts...)

	sceneOpts := []scene.SceneBuilderOption{
		scene.WithCulling(cfg.Engine.Culling),
		scene.WithLogger(logger),
	}
	if cfg.Engine.PrepareWorkers > 0 {
		sceneOpts = append(sceneOpts, scene.WithPrepareWorkers(cfg.Engine.PrepareWorkers))
	}
	sc := scene.NewScene("main", cam, r, sceneOpts...)
	defer sc.Release()

	for i, cc := range cfg.Scene.Cubes {
		name := cc.Name
		if name == "" {
			name = fmt.Sprintf("cube-%d", i)
		}
		cube, err := renderable.NewCube(name, r, cc.Options()...)
		if err != nil {
			return err
		}
		defer cube.Release()
		sc.Add(cube)
	}
	logger.Info().Int("cubes", sc.Len()).Msg("scene ready")

	mapper := input.NewMapper(cfg.MapperOptions()...)
	win.SetKeyDownCallback(mapper.KeyDown)
	win.SetKeyUpCallback(mapper.KeyUp)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prof := profiler.NewProfiler(profiler.WithLogger(logger), profiler.WithRegistry(reg))
	if cfg.Metrics.Enabled {
		go func() {
			if err := prof.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(0, sc),
		engine.WithResizeTarget(r),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfiler(prof),
		engine.WithLogger(logger),
	)
	eng.SetTickCallback(func(dt float32) {
		mapper.Apply(cam, dt)
	})

	baseTitle := cfg.Window.Title
	var lastTitle time.Time
	eng.SetRenderCallback(func(float32) {
		if time.Since(lastTitle) < titleRefresh {
			return
		}
		lastTitle = time.Now()
		win.SetTitle(statusTitle(baseTitle, cam))
	})

	if cfg.Path != "" {
		watcher, err := config.NewWatcher(cfg.Path, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("config hot reload disabled")
		} else {
			defer watcher.Close()
			go forwardConfigChanges(ctx, watcher, eng, func(next *config.Config) {
				applyConfig(next, cam, mapper, r, sc, eng, logger)
				baseTitle = next.Window.Title
				logger.Info().Msg("config applied")
			})
		}
	}

	return eng.Run(ctx)
}

// forwardConfigChanges posts each reloaded config to the engine loop so it is applied between frames.
func forwardConfigChanges(ctx context.Context, w *config.Watcher, eng engine.Engine, apply func(*config.Config)) {
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-w.Changes():
			if !ok {
				return
			}
			eng.Post(func() { apply(next) })
		}
	}
}

// applyConfig updates the live objects with the settings that can change without a restart.
// Window size, MSAA, and the cube list require a restart. Key names that fail to resolve keep the
// current bindings and haste keys.
func applyConfig(cfg *config.Config, cam camera.Camera, mapper input.Mapper, r renderer.Renderer, sc scene.Scene, eng engine.Engine, logger zerolog.Logger) {
	cam.SetConfig(cfg.CameraConfig())
	if bindings, haste, err := cfg.Bindings(); err != nil {
		logger.Warn().Err(err).Msg("keeping current key bindings")
	} else {
		mapper.SetBindings(bindings)
		mapper.SetHasteKeys(haste...)
	}
	mapper.SetHasteMultiplier(cfg.Input.HasteMultiplier)
	r.SetClearColor(cfg.ClearColor())
	r.SetPresentMode(cfg.PresentMode())
	sc.SetCulling(cfg.Engine.Culling)
	eng.SetRenderFrameLimit(float64(cfg.Engine.FrameLimit))
	if cfg.Engine.Profiling {
		eng.EnableProfiler()
	} else {
		eng.DisableProfiler()
	}
}

// statusTitle renders the camera position and orientation into the window title.
func statusTitle(base string, cam camera.Camera) string {
	pos := cam.Position()
	yaw, pitch := cam.YawPitch()
	return fmt.Sprintf("%s | pos %.2f %.2f %.2f | yaw %.1f pitch %.1f", base, pos.X(), pos.Y(), pos.Z(), yaw, pitch)
}
