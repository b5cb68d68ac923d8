package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sdpower/ctxgw-report/internal/calculator"
	"github.com/sdpower/ctxgw-report/internal/config"
	"github.com/sdpower/ctxgw-report/internal/loader"
	"github.com/sdpower/ctxgw-report/internal/logger"
	"github.com/sdpower/ctxgw-report/internal/pricing"
	"github.com/sdpower/ctxgw-report/internal/types"
	"github.com/sdpower/ctxgw-report/internal/viewer"
)

// commonFlags are registered on every subcommand.
type commonFlags struct {
	configPath string
	debug      bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", config.DefaultConfigFile, "Path to YAML config file")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Show debug information")
}

// setup loads the configuration and applies the log level.
func (f commonFlags) setup() (*config.Config, error) {
	cfg, err := config.LoadFrom(f.configPath)
	if err != nil {
		return nil, err
	}

	if f.debug {
		cfg.LogLevel = "debug"
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	return cfg, nil
}

// reportFlags select the log source and rendering of report and view.
type reportFlags struct {
	commonFlags
	noColor bool
	offline bool
	service string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	f.commonFlags.register(cmd)
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use built-in prices instead of fetching the LiteLLM catalog")
	cmd.Flags().StringVar(&f.service, "service", "", "Docker compose service name of the gateway")
}

func (f reportFlags) setup() (*config.Config, error) {
	cfg, err := f.commonFlags.setup()
	if err != nil {
		return nil, err
	}
	if f.offline {
		cfg.Offline = true
	}
	if f.service != "" {
		cfg.Service = f.service
	}
	return cfg, nil
}

// colorDisabled turns colour off when stdout is not a terminal.
func (f reportFlags) colorDisabled() bool {
	return f.noColor || !viewer.IsTerminal(os.Stdout)
}

func newPricingService(cfg *config.Config) *pricing.Service {
	if cfg.Offline {
		return pricing.NewStaticService()
	}
	return pricing.NewService(
		pricing.WithURL(cfg.PricesURL),
		pricing.WithTimeout(cfg.PricesTimeout),
	)
}

// pipeline resolves the log source, fetches prices and both logs
// concurrently, then runs the analysis.
type pipeline struct {
	cfg    *config.Config
	arg    string
	runner loader.Runner
}

func (p pipeline) run(ctx context.Context) (types.Report, error) {
	src, err := loader.Resolve(ctx, p.arg, loader.ResolveOptions{
		Service:         p.cfg.Service,
		RequestPath:     p.cfg.TelemetryPath,
		CompressionPath: p.cfg.CompressionPath,
		Runner:          p.runner,
	})
	if err != nil {
		return types.Report{}, err
	}
	logger.Debug("reading gateway logs", "source", src.Describe())

	prices := newPricingService(p.cfg)

	var requestRaw, compressionRaw []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prices.Load(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		requestRaw, err = src.RequestLog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		compressionRaw, err = src.CompressionLog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Report{}, fmt.Errorf("failed to load gateway logs: %w", err)
	}

	requests := loader.ParseRequestLog(requestRaw)
	compressions := loader.ParseCompressionLog(compressionRaw)
	logger.Debug("parsed gateway logs",
		"requests", len(requests),
		"compressions", len(compressions),
		"live_prices", prices.LiveModels())

	return calculator.New(prices).Analyze(requests, compressions), nil
}

func sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
