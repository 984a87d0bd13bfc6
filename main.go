package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-converter/internal/catalog"
	"library-converter/internal/database"
	"library-converter/internal/logging"
	"library-converter/internal/media"
	"library-converter/internal/memory"
	"library-converter/internal/metrics"
	"library-converter/internal/pipeline"
	"library-converter/internal/server"
	"library-converter/internal/startup"
	"library-converter/internal/tools"
	"library-converter/internal/transcoder"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return exitFailure
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()

	startup.LogMemoryInit()
	memory.ConfigureFromEnv()
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// External tools
	runner := tools.NewExecRunner()
	defer runner.Cleanup()
	startup.CheckTools(ctx, runner)

	if config.ImageVipsFallback {
		err := media.InitVips()
		startup.LogVipsInit(true, err)
		if err == nil {
			defer media.ShutdownVips()
		}
	} else {
		startup.LogVipsInit(false, nil)
	}

	// Catalog connectivity
	client, err := catalog.NewHTTPClient(catalog.Options{
		BaseURL: config.APIBase,
		APIKey:  config.APIKey,
	})
	if err != nil {
		logging.Error("Failed to create catalog client: %v", err)
		return exitFailure
	}

	pingStart := time.Now()
	if err := client.Ping(ctx); err != nil {
		logging.Error("Cannot reach catalog at %s: %v", config.APIBase, err)
		return exitCode(ctx, err)
	}
	startup.LogConnectivity(config.APIBase, time.Since(pingStart))

	// Discovery
	discoverStart := time.Now()
	assets, err := catalog.Discover(ctx, client, catalog.DiscoverOptions{
		Types:        config.AssetTypes,
		MaxAssets:    config.MaxAssets,
		WithArchived: config.IncludeArchived,
		WithDeleted:  config.IncludeDeleted,
		TakenAfter:   config.TakenAfter,
		TakenBefore:  config.TakenBefore,
	})
	if err != nil {
		logging.Error("Asset discovery failed: %v", err)
		return exitCode(ctx, err)
	}
	startup.LogDiscovery(len(assets), time.Since(discoverStart))

	// Ledger
	var ledger *database.RunLedger
	if config.LedgerEnabled {
		dbStart := time.Now()
		db, err := database.New(ctx, config.LedgerPath)
		if err != nil {
			logging.Error("Failed to open ledger: %v", err)
			return exitFailure
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Warn("Failed to close ledger: %v", err)
			}
		}()

		runID, err := db.BeginRun(ctx, database.RunInfo{
			DryRun:      config.DryRun,
			Concurrency: config.Concurrency,
			TotalAssets: len(assets),
		})
		if err != nil {
			logging.Error("Failed to start ledger run: %v", err)
			return exitFailure
		}
		ledger = db.Ledger(runID)
		startup.LogLedgerInit(config.LedgerPath, runID, time.Since(dbStart))
	}

	// Pipeline
	handlers := transcoder.Handlers(runner,
		transcoder.ImageOptions{VipsFallback: config.ImageVipsFallback && media.IsVipsAvailable()},
		transcoder.VideoOptions{
			Preset:       config.VideoPreset,
			MaxDimension: config.VideoMaxDimension,
			AudioBitrate: config.VideoAudioBitrate,
		},
	)
	proc := pipeline.NewProcessor(client, handlers, pipeline.Options{
		DryRun:             config.DryRun,
		WorkDir:            config.WorkDir,
		ImageDistance:      config.ImageDistance,
		ImageDistanceRetry: config.ImageDistanceRetry,
		VideoCRF:           config.VideoCRF,
		VideoCRFRetry:      config.VideoCRFRetry,
		EnableRetry:        config.EnableRetry,
		AcceptRetryOutput:  config.AcceptRetryOutput,
		AllowLarger:        config.AllowLarger,
	})

	runnerConfig := pipeline.RunnerConfig{Concurrency: config.Concurrency}
	if monitor.Enabled() {
		runnerConfig.Gate = monitor
	}
	if ledger != nil {
		runnerConfig.Sink = ledger
	}
	batch := pipeline.NewRunner(proc, pipeline.NewLogReporter(), runnerConfig)

	// Metrics
	collector := metrics.NewCollector(batch, 15*time.Second)
	collector.Start()

	var statusServer *server.Server
	if config.MetricsEnabled {
		statusServer = server.New(config.MetricsPort, batch)
		if err := statusServer.Start(); err != nil {
			logging.Warn("Status server disabled: %v", err)
			statusServer = nil
		} else {
			startup.LogServerStarted(statusServer.Router(), config.MetricsPort)
		}
	}

	startup.LogRunStarted(config.DryRun, time.Since(startTime))
	summary, runErr := batch.Run(ctx, assets)

	if ctx.Err() != nil {
		startup.LogShutdownInitiated("interrupt")
	}
	shutdown(ledger, summary, runErr, collector, monitor, runner, statusServer)

	code := exitCode(ctx, runErr)
	if code == exitFailure {
		logging.Error("Run aborted: %v", runErr)
	}
	return code
}

// exitCode maps the outcome of a run to the process exit status. A run
// stopped by a signal exits 130; run-fatal errors exit 1.
func exitCode(ctx context.Context, runErr error) int {
	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, context.Canceled) && ctx.Err() != nil:
		return exitInterrupted
	default:
		return exitFailure
	}
}

func shutdown(ledger *database.RunLedger, summary pipeline.Summary, runErr error, collector *metrics.Collector, monitor *memory.Monitor, runner *tools.ExecRunner, statusServer *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if runner.Active() > 0 {
		startup.LogShutdownStep("Stopping external tools")
		runner.Cleanup()
		startup.LogShutdownStepComplete("External tools stopped")
	}

	if ledger != nil {
		startup.LogShutdownStep("Writing run summary to ledger")
		if err := ledger.Finish(ctx, summary, runErr); err != nil {
			logging.Warn("Failed to finish ledger run %s: %v", ledger.RunID(), err)
		} else {
			startup.LogShutdownStepComplete("Ledger updated")
		}
	}

	if statusServer != nil {
		startup.LogShutdownStep("Shutting down status server")
		if err := statusServer.Shutdown(ctx); err != nil {
			logging.Warn("Status server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Status server stopped")
		}
	}

	startup.LogShutdownComplete()
}
