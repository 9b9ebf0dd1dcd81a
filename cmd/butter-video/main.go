package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"github.com/shssoichiro/butter-video/internal/infra/config"
	"github.com/shssoichiro/butter-video/internal/infra/ffmpeg"
	"github.com/shssoichiro/butter-video/internal/infra/imageio"
	"github.com/shssoichiro/butter-video/internal/infra/metrics"
	"github.com/shssoichiro/butter-video/internal/infra/scorer"
	"github.com/shssoichiro/butter-video/internal/infra/tracing"
	"github.com/shssoichiro/butter-video/internal/usecase"
	"github.com/shssoichiro/butter-video/pkg/logger"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usageText = `Usage: butter-video <butter|ssimulacra|ssimulacra2> [flags] <reference> <encoded>

Calculates butteraugli and ssimulacra/ssimulacra2 metrics for videos.

Tool locations resolve from BUTTERAUGLI_PATH, SSIMULACRA_PATH and
SSIMULACRA2_PATH, falling back to lookup on PATH.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	metric := os.Args[1]

	flags := flag.NewFlagSet("butter-video", flag.ExitOnError)
	flags.SortFlags = false
	workers := flags.IntP("workers", "j", 0, "number of concurrent scorer invocations (default: CPU count)")
	toolTimeout := flags.Duration("tool-timeout", 0, "per-invocation timeout for the scorer (default: TOOL_TIMEOUT_MS)")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usageText); flags.PrintDefaults() }
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}
	if flags.NArg() != 2 {
		flags.Usage()
		os.Exit(2)
	}
	referencePath, encodedPath := flags.Arg(0), flags.Arg(1)

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	if *workers > 0 {
		cfg.Workers = *workers
	}
	timeout := time.Duration(cfg.ToolTimeoutMs) * time.Millisecond
	if *toolTimeout > 0 {
		timeout = *toolTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Tracing (non-fatal if the collector is unavailable)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	if cfg.MetricsPort > 0 {
		metricsSrv := metrics.StartServer(cfg.MetricsPort, log)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	override, name, err := toolNames(cfg, metric)
	if err != nil {
		fmt.Fprintf(os.Stderr, "butter-video: %v\n", err)
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	toolPath, err := scorer.Resolve(override, name)
	fatalOnErr(err, "resolve scorer")

	uc := usecase.NewCompareUseCase(
		ffmpeg.NewOpener(cfg.FFmpegPath, cfg.FFprobePath, log),
		imageio.NewWriter(),
		scorer.NewTool(toolPath, timeout, log),
		log,
		usecase.CompareConfig{
			ScratchDir: cfg.ScratchDir,
			Workers:    cfg.Workers,
		},
	)

	run := entity.NewRun(metric, referencePath, encodedPath)
	result, err := uc.Execute(ctx, run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "butter-video: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Score: %v\n", result.Mean)
	if result.Norm3P75 != nil {
		fmt.Printf("3-norm (75th percentile): %v\n", *result.Norm3P75)
	}
}

func toolNames(cfg *config.Config, metric string) (override, name string, err error) {
	switch metric {
	case "butter":
		return cfg.ButteraugliPath, "butteraugli", nil
	case "ssimulacra":
		return cfg.SsimulacraPath, "ssimulacra", nil
	case "ssimulacra2":
		return cfg.Ssimulacra2Path, "ssimulacra2", nil
	default:
		return "", "", fmt.Errorf("unknown metric %q", metric)
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "butter-video: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
