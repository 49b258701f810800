package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HartreeWorks/bestofn/infrastructure/llm"
	"github.com/HartreeWorks/bestofn/infrastructure/metrics"
	"github.com/HartreeWorks/bestofn/internal/catalog"
	"github.com/HartreeWorks/bestofn/internal/config"
	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/judge"
	"github.com/HartreeWorks/bestofn/internal/livedoc"
	"github.com/HartreeWorks/bestofn/internal/notify"
	"github.com/HartreeWorks/bestofn/internal/orchestrator"
	"github.com/HartreeWorks/bestofn/internal/ports"
	"github.com/HartreeWorks/bestofn/internal/progress"
	"github.com/HartreeWorks/bestofn/internal/sampler"
	"github.com/HartreeWorks/bestofn/internal/synthesis"
)

var validate = validator.New()

// newRunCommand builds the run command. Tests construct fresh instances so
// flag state never leaks between cases.
func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] PROMPT",
		Short: "Run a best-of-N sampling pass over the selected models",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().StringSlice("models", nil, "model ids to sample (overrides preset)")
	cmd.Flags().String("preset", "", "named preset supplying models and defaults")
	cmd.Flags().IntP("samples", "n", 0, "samples per model")
	cmd.Flags().Float64P("temperature", "t", 0, "fixed sampling temperature")
	cmd.Flags().String("temp-range", "", "linear temperature range as low:high, e.g. 0.5:1.1")
	cmd.Flags().Duration("timeout", 0, "per-sample deadline")
	cmd.Flags().Bool("brainstorm", false, "merge ideas across samples instead of picking a winner")
	cmd.Flags().Bool("synthesize", false, "synthesize a final answer across models")
	cmd.Flags().String("out", "", "artifact output directory")
	cmd.Flags().String("live-doc", "", "path of the live-updating markdown document")
	cmd.Flags().Bool("notify", false, "send a desktop notification when the run finishes")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().String("catalog", "", "model catalog YAML overriding the built-in catalog")

	return cmd
}

func init() {
	rootCmd.AddCommand(newRunCommand())
}

func runRun(cmd *cobra.Command, args []string) error {
	catalogPath, _ := cmd.Flags().GetString("catalog")
	if catalogPath == "" {
		catalogPath = cfg.Catalog.Path
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	runCfg, models, err := resolveRun(cmd, args, cfg, cat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewPrometheusMetrics(nil)
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go metrics.Serve(ctx, addr, nil)
	} else if cfg.Metrics.Addr != "" {
		go metrics.Serve(ctx, cfg.Metrics.Addr, nil)
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:      providersWith(collector),
		DefaultTimeout: runCfg.Timeout,
		DefaultMiddleware: []llm.Middleware{
			llm.TracingMiddleware("bestofn"),
			llm.RateLimitMiddleware(rate.Limit(5), 10),
		},
	})
	if err != nil {
		return err
	}

	o := &orchestrator.Orchestrator{
		Sampler: &sampler.Sampler{
			Resolver: &sampler.RegistryResolver{Registry: registry},
			Metrics:  collector,
			Stagger:  time.Duration(cfg.Sampling.StaggerMillis) * time.Millisecond,
		},
		Selector: &judge.Selector{
			Primary:   judgeClient(registry, cfg.Judge.Primary),
			Secondary: judgeClient(registry, cfg.Judge.Secondary),
		},
		Merger: &judge.Merger{
			Primary:   judgeClient(registry, cfg.Judge.Primary),
			Secondary: judgeClient(registry, cfg.Judge.Secondary),
		},
		Tracker: progress.NewTracker(os.Stderr, 2*time.Second),
	}

	if runCfg.Synthesize {
		if client := judgeClient(registry, cfg.Synthesis.Model); client != nil {
			o.Synthesizer = &synthesis.Synthesizer{
				Client:         client,
				ThinkingTokens: cfg.Synthesis.ThinkingTokens,
			}
		}
	}
	if runCfg.LiveDocPath != "" {
		o.Doc = livedoc.New(runCfg.LiveDocPath, runCfg, time.Now())
	}
	if notifyFlag, _ := cmd.Flags().GetBool("notify"); notifyFlag || cfg.Notify.Enabled {
		o.Notifier = notify.Desktop{}
	}

	o.Tracker.Start(ctx)
	outcome, err := o.Run(ctx, runCfg, models)
	o.Tracker.Stop()
	if err != nil {
		return err
	}

	printOutcome(cmd, outcome)
	return nil
}

// resolveRun merges CLI flags, the selected preset, and config defaults
// into the run configuration. Precedence: explicit flag, then preset, then
// default.
func resolveRun(cmd *cobra.Command, args []string, cfg *config.Config, cat *catalog.Catalog) (domain.RunConfig, []catalog.ModelDescriptor, error) {
	runCfg := domain.RunConfig{
		Prompt:      strings.Join(args, " "),
		Samples:     cfg.Sampling.Samples,
		Temperature: cfg.Sampling.Temperature,
		Timeout:     time.Duration(cfg.Sampling.TimeoutSecs) * time.Second,
		OutputDir:   cfg.Output.Dir,
		LiveDocPath: cfg.Output.LiveDocPath,
	}

	var modelIDs []string

	if presetName, _ := cmd.Flags().GetString("preset"); presetName != "" {
		preset, err := cat.PresetNamed(presetName)
		if err != nil {
			return domain.RunConfig{}, nil, err
		}
		modelIDs = preset.Models
		if preset.Samples > 0 {
			runCfg.Samples = preset.Samples
		}
		if preset.Temperature > 0 {
			runCfg.Temperature = preset.Temperature
		}
		if preset.Range != nil {
			runCfg.Range = preset.Range
		}
		if preset.Timeout > 0 {
			runCfg.Timeout = time.Duration(preset.Timeout)
		}
		runCfg.Brainstorm = preset.Brainstorm
	}

	if cmd.Flags().Changed("models") {
		modelIDs, _ = cmd.Flags().GetStringSlice("models")
	}
	if len(modelIDs) == 0 {
		preset, err := cat.PresetNamed("default")
		if err != nil {
			return domain.RunConfig{}, nil, err
		}
		modelIDs = preset.Models
	}

	if cmd.Flags().Changed("samples") {
		runCfg.Samples, _ = cmd.Flags().GetInt("samples")
	}
	if cmd.Flags().Changed("temperature") {
		runCfg.Temperature, _ = cmd.Flags().GetFloat64("temperature")
		runCfg.Range = nil
	}
	if cmd.Flags().Changed("temp-range") {
		raw, _ := cmd.Flags().GetString("temp-range")
		r, err := parseTempRange(raw)
		if err != nil {
			return domain.RunConfig{}, nil, err
		}
		runCfg.Range = r
	}
	if cmd.Flags().Changed("timeout") {
		runCfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("brainstorm") {
		runCfg.Brainstorm, _ = cmd.Flags().GetBool("brainstorm")
	}
	if cmd.Flags().Changed("synthesize") {
		runCfg.Synthesize, _ = cmd.Flags().GetBool("synthesize")
	}
	if cmd.Flags().Changed("out") {
		runCfg.OutputDir, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("live-doc") {
		runCfg.LiveDocPath, _ = cmd.Flags().GetString("live-doc")
	}

	if err := validate.Struct(&runCfg); err != nil {
		return domain.RunConfig{}, nil, fmt.Errorf("invalid run configuration: %w", err)
	}

	models, err := cat.Select(modelIDs)
	if err != nil {
		return domain.RunConfig{}, nil, err
	}
	return runCfg, models, nil
}

// parseTempRange parses "low:high" into a temperature range.
func parseTempRange(raw string) (*domain.TemperatureRange, error) {
	low, high, found := strings.Cut(raw, ":")
	if !found {
		return nil, fmt.Errorf("temp-range must be low:high, got %q", raw)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(low), 64)
	if err != nil {
		return nil, fmt.Errorf("temp-range low bound: %w", err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(high), 64)
	if err != nil {
		return nil, fmt.Errorf("temp-range high bound: %w", err)
	}
	if h < l {
		return nil, fmt.Errorf("temp-range high bound %v below low bound %v", h, l)
	}
	return &domain.TemperatureRange{Low: l, High: h}, nil
}

// providersWith attaches metrics middleware labeled per provider.
func providersWith(collector ports.MetricsCollector) map[string]llm.ProviderConfig {
	providers := make(map[string]llm.ProviderConfig, len(llm.DefaultProviders))
	for name, pc := range llm.DefaultProviders {
		pc.Middleware = append(pc.Middleware, llm.MetricsMiddleware(name, collector))
		providers[name] = pc
	}
	return providers
}

// judgeClient resolves an auxiliary model spec, degrading to nil when the
// provider is unavailable so the fallback chain can take over.
func judgeClient(registry *llm.Registry, spec string) ports.LLMClient {
	if spec == "" {
		return nil
	}
	client, err := registry.GetClient(spec)
	if err != nil {
		zap.L().Warn("auxiliary model unavailable",
			zap.String("spec", spec), zap.Error(err))
		return nil
	}
	return client
}

// printOutcome writes the human-readable result to stdout.
func printOutcome(cmd *cobra.Command, outcome *orchestrator.Outcome) {
	out := cmd.OutOrStdout()

	for _, r := range outcome.Results {
		fmt.Fprintf(out, "\n=== %s ===\n", r.DisplayName)
		fmt.Fprintln(out, r.Representative())
	}
	if len(outcome.Failed) > 0 {
		fmt.Fprintf(out, "\nFailed models: %s\n", strings.Join(outcome.Failed, ", "))
	}
	if outcome.Synthesis != "" {
		fmt.Fprintf(out, "\n=== Synthesis ===\n%s\n", outcome.Synthesis)
	}
	if outcome.RunDir != "" {
		fmt.Fprintf(out, "\nRun artifacts: %s\n", outcome.RunDir)
	}
}
