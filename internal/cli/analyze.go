package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pyq-analyzer/internal/app"
	"pyq-analyzer/internal/config"
	"pyq-analyzer/internal/fetch"
	"pyq-analyzer/internal/infra/memory"
	"pyq-analyzer/internal/infra/postgres"
	redispaper "pyq-analyzer/internal/infra/redis"
	"pyq-analyzer/internal/report"
)

// NewAnalyzeCmd builds the subcommand that runs the pipeline once.
func NewAnalyzeCmd(configPath *string) *cobra.Command {
	var outPath, chartPath string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch papers for every configured year and write the pattern report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), *configPath, outPath, chartPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "report output path (overrides config)")
	cmd.Flags().StringVar(&chartPath, "chart", "", "write a difficulty trend chart HTML to this path")
	return cmd
}

func runAnalyze(ctx context.Context, configPath, outPath, chartPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outPath != "" {
		cfg.Output.Path = outPath
	}
	if chartPath != "" {
		cfg.Output.ChartPath = chartPath
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := rt.analyzer.Analyze(ctx, nil)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary(rep))
	if cfg.Output.ChartPath != "" {
		if err := report.WriteTrendChart(cfg.Output.ChartPath, rep); err != nil {
			return err
		}
		log.Printf("[chart] written to %s", cfg.Output.ChartPath)
	}
	return nil
}

// runtime bundles the wired pipeline and its optional backing services.
type runtime struct {
	analyzer *app.Analyzer
	store    *postgres.ReportStore
	cleanup  func()
}

// buildRuntime wires fetcher, paper cache (redis when configured, in-memory
// otherwise) and the optional postgres report archive.
func buildRuntime(ctx context.Context, cfg config.Config) (runtime, error) {
	fetchTimeout := config.TTLDuration(cfg.Fetch.Timeout, 30*time.Second)
	fetcher := fetch.NewHTTPFetcher(fetchTimeout, cfg.Fetch.UserAgent)
	loader := fetch.NewTemplateLoader(fetcher, cfg.PaperURL)
	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 24*time.Hour)

	var papers app.PaperSource
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		papers = redispaper.NewPaperCache(client, loader, cfg.Subject.Code, cacheTTL)
	} else {
		papers = memory.NewPaperCache(loader, cacheTTL)
	}

	rt := runtime{cleanup: func() {}}
	var archive app.ReportArchive
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return runtime{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return runtime{}, err
		}
		rt.store = postgres.NewReportStore(pool)
		rt.cleanup = pool.Close
		archive = rt.store
	}

	rt.analyzer = app.NewAnalyzer(cfg, papers, archive)
	return rt, nil
}
