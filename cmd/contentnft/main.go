// Package main is the entry point for the ContentNFT ledger gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fd1az/contentnft-gateway/business/ledger"
	ledgerApp "github.com/fd1az/contentnft-gateway/business/ledger/app"
	ledgerDI "github.com/fd1az/contentnft-gateway/business/ledger/di"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apm"
	"github.com/fd1az/contentnft-gateway/internal/config"
	"github.com/fd1az/contentnft-gateway/internal/health"
	"github.com/fd1az/contentnft-gateway/internal/logger"
	"github.com/fd1az/contentnft-gateway/internal/metrics"
	"github.com/fd1az/contentnft-gateway/internal/monolith"
	"github.com/fd1az/contentnft-gateway/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("contentnft-gateway %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	var out io.Writer = os.Stderr
	if tuiMode {
		// The dashboard owns the terminal.
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Info(ctx, "starting ContentNFT ledger gateway",
		"version", version,
		"environment", cfg.App.Environment,
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}
	defer healthServer.Stop(context.Background())

	mono := monolith.New(cfg, log, healthServer)
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown", "error", err)
		}
	}()

	modules := []monolith.Module{
		&ledger.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		startFunc := func() (*ledgerApp.LedgerService, error) {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return nil, fmt.Errorf("failed to start modules: %w", err)
			}
			return ledgerDI.GetLedgerService(mono.Services()), nil
		}
		return runTUI(ctx, startFunc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, ledgerDI.GetLedgerService(mono.Services()), cfg.Ledger.EventBuffer, log)
}

// startTelemetry installs tracing and metrics and returns their shutdown.
func startTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	traceProvider, err := apm.NewTraceProvider(log, apm.ExporterConfig{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider, "endpoint", cfg.Telemetry.OTLPEndpoint)

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if apm.Provider(cfg.Telemetry.TraceProvider) == apm.OTLPGRPCProvider && cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, metrics.InsecureOtel),
		))
	}
	meterProvider, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer := metrics.NewPrometheusServer(prometheus.DefaultGatherer,
		metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
	go func() {
		if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = promServer.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = traceProvider.Stop()
	}, nil
}

func runCLI(ctx context.Context, svc *ledgerApp.LedgerService, buffer int, log *logger.Logger) error {
	events, cancel := svc.Controller().Emitter().Listen(buffer)
	defer cancel()

	log.Info(ctx, "listening for contract events", "events", domain.ContentSubscriptions().OutputNames())

	for {
		select {
		case <-ctx.Done():
			log.Info(context.Background(), "shutting down")
			return nil
		case ev := <-events:
			args := []any{
				"event", ev.Name,
				"block", ev.BlockNumber,
				"tx", ev.TxHash.Hex(),
				"removed", ev.Removed,
			}
			for k, v := range ev.Fields {
				args = append(args, k, fmt.Sprint(v))
			}
			log.Info(ctx, "contract event", args...)
		}
	}
}

func runTUI(ctx context.Context, startFunc func() (*ledgerApp.LedgerService, error)) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		svc, err := startFunc()
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		bridge(ctx, svc)
		errCh <- nil
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// bridge forwards controller status and contract events to the dashboard
// until ctx ends.
func bridge(ctx context.Context, svc *ledgerApp.LedgerService) {
	emitter := svc.Controller().Emitter()
	events, cancel := emitter.Listen(64)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	ui.Send(ui.StatusMsg{Status: svc.Status()})

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			ui.Send(ui.EventMsg{Event: ev})
		case <-ticker.C:
			ui.Send(ui.StatusMsg{Status: svc.Status()})
			emitted, dropped := emitter.Stats()
			ui.Send(ui.DeliveryMsg{Emitted: emitted, Dropped: dropped})
		}
	}
}
