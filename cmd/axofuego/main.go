// Command axofuego runs the fire-control engine: it spawns one channel
// actor per configured GPIO pin, starts the pattern scheduler and the
// watchdog, serves the WebSocket and HTTP command surfaces, and shuts
// everything down in order on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axofuego/axofuego/internal/actorkit"
	"github.com/axofuego/axofuego/internal/config"
	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/gpio"
	"github.com/axofuego/axofuego/internal/logging"
	"github.com/axofuego/axofuego/internal/metrics"
	"github.com/axofuego/axofuego/internal/router"
	"github.com/axofuego/axofuego/internal/safety"
	"github.com/axofuego/axofuego/internal/scheduler"
)

func main() {
	root := &cobra.Command{
		Use:   "axofuego",
		Short: "Fire-control engine for solenoid-driven flame effects",
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the engine and every command surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg := config.FromEnv()

	logger, err := logging.Build(cfg.LogLevel, cfg.LogConsole, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("axofuego starting",
		zap.Ints("pins", cfg.GPIO.Pins),
		zap.Bool("mock_gpio", cfg.GPIO.Mock),
		zap.Duration("max_duration", cfg.Safety.MaxDuration),
	)

	var driver gpio.Driver
	if cfg.GPIO.Mock {
		driver = gpio.NewMock()
	} else {
		driver = gpio.NewSysfs(cfg.GPIO.HardwareDelay)
	}

	m := metrics.New()
	rt := actorkit.NewEngine(actorkit.Hooks{
		OnPanic: func(pid *actorkit.PID, reason interface{}) {
			logger.Error("actor panicked", zap.String("pid", pid.String()), zap.Any("reason", reason))
		},
		OnMailboxFull: func(pid *actorkit.PID, msg interface{}) {
			logger.Warn("actor mailbox full, dropping message", zap.String("pid", pid.String()))
		},
	})

	fe, err := fireengine.Spawn(rt, driver, cfg, m)
	if err != nil {
		return fmt.Errorf("spawn fire engine: %w", err)
	}

	sched := scheduler.Spawn(rt, fe, m, cfg.Pattern.DefaultBPM, cfg.Pattern.MinBPM, cfg.Pattern.MaxBPM, cfg.Pattern.TickResolution)

	wsRouter := router.New(fe, sched, logger)

	keypadStop := make(chan struct{})
	if cfg.Keypad.DevicePath != "" {
		kp := router.NewKeypad(fe, sched, logger, nil)
		go runKeypadReader(cfg.Keypad.DevicePath, kp, logger, keypadStop)
	} else {
		logger.Info("no keypad device configured, running without local keypad control")
	}

	wsAddr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	wsServer := &http.Server{Addr: wsAddr, Handler: wsRouter.Handler()}

	httpMux := http.NewServeMux()
	httpMux.Handle("/", router.StaticFileServer(cfg.Web.StaticDir, logger))
	httpMux.Handle("/healthz", router.HealthCheck())
	httpMux.Handle("/api/", wsRouter.APIHandler())
	httpAddr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.HTTPPort)
	httpServer := &http.Server{Addr: httpAddr, Handler: httpMux}

	metricsAddr := "127.0.0.1:9091"

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	go func() {
		logger.Info("websocket server listening", zap.String("addr", wsAddr))
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("websocket server failed", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("http server listening", zap.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", zap.Error(err))
		}
	}()
	go func() {
		if err := m.Serve(rootCtx, metricsAddr); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	shell := safety.New(logger)
	shell.Register(safety.Stage{
		Name: "stop_keypad",
		Run: func(ctx context.Context) error {
			close(keypadStop)
			return nil
		},
	})
	shell.Register(safety.Stage{
		Name:    "stop_scheduler",
		Timeout: 2 * time.Second,
		Run: func(ctx context.Context) error {
			sched.Stop()
			sched.Close()
			return nil
		},
	})
	shell.Register(safety.Stage{
		Name:    "release_channels",
		Timeout: 2 * time.Second,
		Run: func(ctx context.Context) error {
			fe.Close()
			return nil
		},
	})
	shell.Register(safety.Stage{
		Name:    "stop_transports",
		Timeout: 5 * time.Second,
		Run: func(ctx context.Context) error {
			_ = wsServer.Shutdown(ctx)
			_ = httpServer.Shutdown(ctx)
			return nil
		},
	})
	shell.Register(safety.Stage{
		Name:    "release_pins",
		Timeout: 2 * time.Second,
		Run: func(ctx context.Context) error {
			return driver.ReleaseAll()
		},
	})
	shell.Register(safety.Stage{
		Name: "stop_actor_runtime",
		Run: func(ctx context.Context) error {
			rt.Shutdown(2 * time.Second)
			cancelRoot()
			return nil
		},
	})

	shell.Wait(rootCtx)
	logger.Info("axofuego stopped")
	return nil
}
