// Command universe runs the render server: a window drawing the cube scene and an HTTP job
// service whose skybox requests are captured by the render loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/config"
	"github.com/Carmen-Shannon/universe/engine"
	"github.com/Carmen-Shannon/universe/engine/camera"
	"github.com/Carmen-Shannon/universe/engine/profiler"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu/glcore"
	"github.com/Carmen-Shannon/universe/engine/scene"
	"github.com/Carmen-Shannon/universe/engine/task"
	"github.com/Carmen-Shannon/universe/engine/window"
	"github.com/Carmen-Shannon/universe/server"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

// GLFW and the GL context must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

type flags struct {
	configPath string
	addr       string
	logLevel   string
	profile    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "universe",
		Short:        "Render server producing skybox cubemaps on request",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "TOML configuration file")
	pf.StringVar(&f.addr, "addr", "", "job service listen address (overrides the config file)")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides the config file)")
	pf.BoolVar(&f.profile, "profile", false, "log frame rate and memory statistics every second")

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	})
	return root
}

// loadConfig reads the config file and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	set := cmd.Flags()
	if set.Changed("addr") {
		cfg.Addr = f.addr
	}
	if set.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set.Changed("profile") {
		cfg.Render.Profiling = f.profile
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	level, err := common.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := common.Logger()

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithSwapInterval(swapInterval(cfg.Window.VSync)),
		window.WithResizable(cfg.Window.Resizable),
	)
	if err != nil {
		log.Error("failed to create window", "error", err)
		return err
	}
	defer win.Close()

	b, err := glcore.New()
	if err != nil {
		log.Error("failed to load OpenGL", "error", err)
		return err
	}
	log.Info("OpenGL ready", "version", glcore.Version())

	queue := task.NewQueue()
	running := &atomic.Bool{}
	running.Store(true)

	eng := engine.NewEngine(b, win, queue, running,
		engine.WithScene(scene.NewScene(
			scene.WithSeed(cfg.Scene.Seed),
			scene.WithRandomCubes(cfg.Scene.RandomCubes),
		)),
		engine.WithSkyboxSize(cfg.Skybox.Size),
		engine.WithOutputDir(cfg.Skybox.OutputDir),
		engine.WithDefaultName(cfg.Skybox.DefaultName),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
		engine.WithProfiling(cfg.Render.Profiling),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithUpdateInterval(seconds(cfg.Render.ProfileInterval)),
		)),
		engine.WithOverlay(cfg.Render.Overlay),
		engine.WithClearColor(clearColor(cfg.Render.ClearColor)),
		engine.WithCamera(newCamera(cfg.Camera)),
	)
	defer eng.Close()
	if err := eng.Init(); err != nil {
		log.Error("failed to initialize renderer", "error", err)
		return err
	}

	srv := server.New(queue, running,
		server.WithAddr(cfg.Addr),
		server.WithDefaultName(cfg.Skybox.DefaultName),
		server.WithStreamBuffer(cfg.StreamBuffer),
	)
	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.Addr, "error", err)
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	go func() {
		if err := srv.Serve(l); err != nil {
			log.Error("job service stopped", "error", err)
			running.Store(false)
		}
	}()
	srv.SetReady(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		running.Store(false)
	}()

	runErr := eng.Run()
	if runErr != nil {
		log.Error("render loop stopped", "error", runErr)
	}
	running.Store(false)
	srv.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("job service shutdown", "error", err)
	}
	log.Info("render server stopped", "frames", eng.Frames())
	return runErr
}

func swapInterval(vsync bool) int {
	if vsync {
		return 1
	}
	return 0
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clearColor(c [4]float64) mgl32.Vec4 {
	return mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
}

// newCamera builds the on-screen camera orbiting the scene.
func newCamera(c config.CameraConfig) camera.Camera {
	return camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(float32(c.Fov))),
		camera.WithNear(float32(c.Near)),
		camera.WithFar(float32(c.Far)),
		camera.WithController(camera.NewOrbitController(
			camera.WithAzimuth(mgl32.DegToRad(float32(c.Azimuth))),
			camera.WithOrbitSpeed(float32(c.OrbitSpeed)),
		)),
	)
}
