// dtracecol decodes raw events captured by a dynamically attached
// instrumentation program into typed rows of an observability table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cilium/ebpf/perf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tracekit/dtracecol/internal/collector"
	"github.com/tracekit/dtracecol/internal/config"
	"github.com/tracekit/dtracecol/internal/poller"
	"github.com/tracekit/dtracecol/internal/probe"
	"github.com/tracekit/dtracecol/internal/pump"
	"github.com/tracekit/dtracecol/internal/rowfilter"
	"github.com/tracekit/dtracecol/internal/table"
	"github.com/tracekit/dtracecol/internal/telemetry"
	"github.com/tracekit/dtracecol/internal/timesync"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("dtracecol failed")
	}
}

// setupMetrics initializes the OTLP meter provider and pipeline counters.
// Returns nil counters when metrics are disabled.
func setupMetrics(enabled bool) (*telemetry.Counters, func(), error) {
	if !enabled {
		return nil, func() {}, nil
	}

	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, err
	}

	mp, err := telemetry.InitProvider(otelCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing metrics provider: %w", err)
	}

	counters, err := telemetry.NewCounters(mp.Meter("dtracecol"))
	if err != nil {
		return nil, nil, fmt.Errorf("registering counters: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.ShutdownProvider(mp, shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutting down metrics provider")
		}
	}
	return counters, cleanup, nil
}

// setupProbe loads the instrumentation program, attaches its uprobes and
// opens the perf buffer. Returns the reader and a cleanup function.
func setupProbe(cfg config.ProbeConfig, perCPUBuffer int) (*perf.Reader, func(), error) {
	loader, err := probe.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := loader.Attach(); err != nil {
		if closeErr := loader.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing loader after attach failure")
		}
		return nil, nil, err
	}

	rd, err := loader.OpenPerfReader(perCPUBuffer)
	if err != nil {
		if closeErr := loader.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing loader after perf open failure")
		}
		return nil, nil, err
	}

	cleanup := func() {
		if err := rd.Close(); err != nil {
			log.Warn().Err(err).Msg("closing perf reader")
		}
		if err := loader.Close(); err != nil {
			log.Warn().Err(err).Msg("closing probe loader")
		}
	}
	return rd, cleanup, nil
}

func run() error {
	cfg, err := config.ParseCollectorConfig()
	if err != nil {
		return err
	}

	tc, err := config.LoadTableConfig(cfg.TableConfigPath)
	if err != nil {
		return err
	}
	sc, err := tc.Schema()
	if err != nil {
		return err
	}

	log.Info().Str("version", version).Str("commit", commit).
		Str("table", sc.Name).Msg("starting dtracecol")

	counters, cleanupMetrics, err := setupMetrics(cfg.MetricsEnabled)
	if err != nil {
		return err
	}
	defer cleanupMetrics()

	converter, err := timesync.NewConverter()
	if err != nil {
		return fmt.Errorf("creating time converter: %w", err)
	}

	tbl := table.New(sc.Name, sc.OutputColumns())

	opts := []pump.Option{}
	if counters != nil {
		opts = append(opts, pump.WithCounters(counters))
	}
	if tc.Filter != "" {
		filter, err := rowfilter.Compile(tc.Filter)
		if err != nil {
			return err
		}
		opts = append(opts, pump.WithFilter(filter))
	}
	pmp := pump.New(sc, pump.TableSink{Table: tbl}, cfg.ASID, converter.Offset(), opts...)

	rd, cleanupProbe, err := setupProbe(tc.Probe, cfg.PerfBufferBytes)
	if err != nil {
		return err
	}
	defer cleanupProbe()

	src := poller.New(rd)
	col := collector.New(src, pmp, cfg.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := col.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("received signal, stopping collection")

	if err := col.Stop(); err != nil {
		return err
	}

	log.Info().Int("rows", tbl.RowCount()).Msg("collection finished")
	return nil
}
