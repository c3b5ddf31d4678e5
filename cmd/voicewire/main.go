// Command voicewire is the main entry point for the voicewire voice client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicewire/voicewire/internal/app"
	"github.com/voicewire/voicewire/internal/config"
	"github.com/voicewire/voicewire/internal/health"
	"github.com/voicewire/voicewire/internal/observe"
	"github.com/voicewire/voicewire/pkg/audio/portaudio"
	clipsrest "github.com/voicewire/voicewire/pkg/provider/clips/rest"
	genrest "github.com/voicewire/voicewire/pkg/provider/generator/rest"
	transrest "github.com/voicewire/voicewire/pkg/provider/transcriber/rest"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	listDevices := flag.Bool("list-devices", false, "list audio input devices and exit")
	flag.Parse()

	if *listDevices {
		return printInputDevices()
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voicewire: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voicewire: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so a config reload can adjust verbosity
	// without restarting.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("voicewire starting",
		"config", *configPath,
		"metrics_addr", cfg.Server.MetricsAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voicewire"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Config watcher ────────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(d config.ConfigDiff, _ *config.Config) {
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
		}
		if len(d.RestartRequired) > 0 {
			slog.Warn("config change needs a restart", "summary", d.Summary())
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Backend providers ─────────────────────────────────────────────────────
	// The request timeout applies to the bounded round-trips only. The
	// generator keeps its default client: http.Client.Timeout also covers
	// reading the body, which would sever a long generation stream mid-turn;
	// those streams are bounded by the session context instead.
	httpClient := &http.Client{Timeout: cfg.Services.RequestTimeout}

	trans, err := transrest.New(cfg.Services.TranscribeURL, transrest.WithHTTPClient(httpClient))
	if err != nil {
		slog.Error("failed to build transcriber", "err", err)
		return 1
	}
	gen, err := genrest.New(cfg.Services.GenerateURL)
	if err != nil {
		slog.Error("failed to build generator", "err", err)
		return 1
	}
	clipFetcher, err := clipsrest.New(cfg.Services.ClipsBaseURL, clipsrest.WithHTTPClient(httpClient))
	if err != nil {
		slog.Error("failed to build clip fetcher", "err", err)
		return 1
	}

	// ── Audio hardware ────────────────────────────────────────────────────────
	capture, err := portaudio.NewCapture(portaudio.CaptureConfig{
		SampleRate: cfg.Audio.SampleRate,
		FrameSize:  cfg.Audio.FrameSize,
		DeviceName: cfg.Audio.InputDevice,
	})
	if err != nil {
		slog.Error("failed to open capture device", "err", err)
		return 1
	}
	defer capture.Close()

	player, err := portaudio.NewPlayer()
	if err != nil {
		slog.Error("failed to open playback device", "err", err)
		return 1
	}
	defer player.Close()

	// ── Metrics and health server ─────────────────────────────────────────────
	ready := health.NewReadyFlag("warmup")
	httpSrv := newMetricsServer(cfg.Server.MetricsAddr, metrics, ready)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()

	// ── Session ───────────────────────────────────────────────────────────────
	printStartupSummary(cfg)

	sess, err := app.New(cfg, app.Providers{
		Transcriber: trans,
		Generator:   gen,
		Clips:       clipFetcher,
	}, capture, player,
		app.WithPresenter(newConsolePresenter(os.Stdout)),
		app.WithMetrics(metrics),
		app.WithReadyFlag(ready),
	)
	if err != nil {
		slog.Error("failed to initialise session", "err", err)
		return 1
	}

	slog.Info("session ready — press Ctrl+C to quit")

	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── HTTP surface ──────────────────────────────────────────────────────────────

func newMetricsServer(addr string, m *observe.Metrics, ready *health.ReadyFlag) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(ready.Checker()).Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(m)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║          voicewire — startup summary          ║")
	fmt.Println("╠═══════════════════════════════════════════════╣")
	printRow("Transcribe", cfg.Services.TranscribeURL)
	printRow("Generate", cfg.Services.GenerateURL)
	printRow("Clips", cfg.Services.ClipsBaseURL)
	printRow("Input device", orDefault(cfg.Audio.InputDevice, "(system default)"))
	printRow("Sample rate", fmt.Sprintf("%d Hz", cfg.Audio.SampleRate))
	printRow("Silence delay", cfg.Turn.SilenceDelay.String())
	printRow("Metrics addr", cfg.Server.MetricsAddr)
	fmt.Println("╚═══════════════════════════════════════════════╝")
}

func printRow(name, value string) {
	if len([]rune(value)) > 29 {
		value = string([]rune(value)[:26]) + "…"
	}
	fmt.Printf("║  %-13s: %-29s ║\n", name, value)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func printInputDevices() int {
	devices, err := portaudio.ListInputDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicewire: %v\n", err)
		return 1
	}
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %-40s channels=%d rate=%.0f\n", marker, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return 0
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
