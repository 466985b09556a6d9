package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Carmen-Shannon/eduren/engine"
	"github.com/Carmen-Shannon/eduren/engine/bench"
	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/config"
	"github.com/Carmen-Shannon/eduren/engine/input"
	"github.com/Carmen-Shannon/eduren/engine/profiler"
	"github.com/Carmen-Shannon/eduren/engine/renderable"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/Carmen-Shannon/eduren/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	benchGridSide = 100
	benchSpacing  = 3
)

func newBenchCmd(opts *rootOptions) *cobra.Command {
	s := bench.DefaultSettings()
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Add cubes until the frame rate drops below a threshold",
		Long: `bench renders a growing grid of cubes with vsync off and frustum culling disabled.
Each step is measured for --interval; while the average stays at or above --threshold FPS
the count grows by --factor. The highest sustained count is printed when the ramp ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
				res, err := runBench(ctx, cfg, s, logger)
				printBenchResult(cmd.OutOrStdout(), s, res)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&s.Initial, "initial", s.Initial, "cubes in the first step")
	cmd.Flags().Float64Var(&s.Factor, "factor", s.Factor, "growth factor per step")
	cmd.Flags().IntVar(&s.MaxStep, "max-step", s.MaxStep, "most cubes added in one step")
	cmd.Flags().IntVar(&s.MaxCount, "max", s.MaxCount, "stop at this many cubes (0 for no limit)")
	cmd.Flags().Float64Var(&s.Threshold, "threshold", s.Threshold, "FPS floor")
	cmd.Flags().DurationVar(&s.Interval, "interval", s.Interval, "measurement time per step")
	return cmd
}

func runBench(ctx context.Context, cfg *config.Config, s bench.Settings, logger zerolog.Logger) (bench.Result, error) {
	logger = logger.With().Str("component", "bench").Logger()

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title+" bench"),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithResizable(cfg.Window.Resizable),
	)
	defer win.Close()

	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(renderer.PresentModeUncapped),
		renderer.WithMSAA(cfg.MSAA()),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.Software),
		renderer.WithClearColor(cfg.ClearColor()),
		renderer.WithLogger(logger),
	)
	defer r.Release()

	half := float32(benchGridSide*benchSpacing) / 2
	camOpts := append(cfg.CameraOptions(),
		camera.WithPosition(mgl32.Vec3{0, half * 0.6, half * 1.4}),
		camera.WithYawPitch(-90, -25),
		camera.WithFar(half*8),
	)
	if win.Height() > 0 {
		camOpts = append(camOpts, camera.WithAspect(float32(win.Width())/float32(win.Height())))
	}
	cam := camera.NewCamera(camOpts...)

	sceneOpts := []scene.SceneBuilderOption{scene.WithCulling(false), scene.WithLogger(logger)}
	if cfg.Engine.PrepareWorkers > 0 {
		sceneOpts = append(sceneOpts, scene.WithPrepareWorkers(cfg.Engine.PrepareWorkers))
	}
	sc := scene.NewScene("bench", cam, r, sceneOpts...)
	defer sc.Release()

	var cubes []renderable.Cube
	defer func() {
		for _, c := range cubes {
			c.Release()
		}
	}()
	spawn := func(n int) error {
		for range n {
			idx := len(cubes)
			c, err := renderable.NewCube(fmt.Sprintf("bench-%d", idx), r,
				renderable.WithTransform(bench.GridPosition(idx, benchGridSide, benchSpacing), 1),
				renderable.WithColor(bench.Color(idx)),
			)
			if err != nil {
				return err
			}
			cubes = append(cubes, c)
			sc.Add(c)
		}
		return nil
	}

	ramp := bench.NewRamp(s, time.Now())
	if err := spawn(ramp.Count()); err != nil {
		return ramp.Result(), err
	}
	logger.Info().Int("cubes", ramp.Count()).Dur("interval", ramp.Settings().Interval).
		Float64("threshold", ramp.Settings().Threshold).Msg("bench started")

	mapper := input.NewMapper(cfg.MapperOptions()...)
	win.SetKeyDownCallback(mapper.KeyDown)
	win.SetKeyUpCallback(mapper.KeyUp)

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(0, sc),
		engine.WithResizeTarget(r),
		engine.WithRenderFrameLimit(0),
		engine.WithProfiling(true),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger))),
		engine.WithLogger(logger),
	)
	eng.SetTickCallback(func(dt float32) {
		mapper.Apply(cam, dt)
	})

	var spawnErr error
	ramp.Restart(time.Now())
	eng.SetRenderCallback(func(float32) {
		grow, done := ramp.Frame(time.Now())
		if done {
			final := ramp.Result().Final
			logger.Info().Int("cubes", final.Count).Float64("fps", final.FPS).Msg("bench finished")
			eng.Quit()
			return
		}
		if grow == 0 {
			return
		}

		last := ramp.Result().Final
		logger.Info().Int("cubes", last.Count).Float64("fps", last.FPS).Int("adding", grow).Msg("step passed")
		start := time.Now()
		if err := spawn(grow); err != nil {
			spawnErr = err
			eng.Quit()
			return
		}
		logger.Debug().Dur("spawn", time.Since(start)).Int("cubes", len(cubes)).Msg("cubes spawned")
		ramp.Restart(time.Now())
		win.SetTitle(fmt.Sprintf("%s bench | %d cubes", cfg.Window.Title, len(cubes)))
	})

	if err := eng.Run(ctx); err != nil {
		return ramp.Result(), err
	}
	return ramp.Result(), spawnErr
}

func printBenchResult(w io.Writer, s bench.Settings, res bench.Result) {
	if len(res.Samples) == 0 {
		fmt.Fprintln(w, "bench: no complete step was measured")
		return
	}
	fmt.Fprintf(w, "%10s  %8s  %9s\n", "cubes", "fps", "ms/frame")
	for _, smp := range res.Samples {
		fmt.Fprintf(w, "%10d  %8.1f  %9.2f\n", smp.Count, smp.FPS, 1000/smp.FPS)
	}
	if res.Best.Count == 0 {
		fmt.Fprintf(w, "no step reached %.0f FPS\n", s.Threshold)
		return
	}
	fmt.Fprintf(w, "best sustained: %d cubes at %.1f FPS\n", res.Best.Count, res.Best.FPS)
}
