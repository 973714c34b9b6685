package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/adapters/cache"
	"github.com/zatekoja/asoradar/internal/adapters/catalog"
	"github.com/zatekoja/asoradar/internal/adapters/database"
	"github.com/zatekoja/asoradar/internal/adapters/events"
	"github.com/zatekoja/asoradar/internal/adapters/report"
	"github.com/zatekoja/asoradar/internal/adapters/search"
	"github.com/zatekoja/asoradar/internal/application/services"
	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/redis"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/storeapi"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
	"github.com/zatekoja/asoradar/internal/stopwords"
	"github.com/zatekoja/asoradar/pkg/config"
)

func main() {
	var (
		envFile   string
		countries string
		chart     string
		topLimit  int
		workers   int
		outputDir string
		timeout   time.Duration
	)
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flag.StringVar(&countries, "countries", "", "comma separated storefront codes (overrides ANALYSIS_COUNTRIES)")
	flag.StringVar(&chart, "chart", "", "top-free, top-paid or top-grossing (overrides ANALYSIS_CHART)")
	flag.IntVar(&topLimit, "limit", 0, "apps per chart (overrides ANALYSIS_TOP_LIMIT)")
	flag.IntVar(&workers, "workers", 0, "concurrent apps per country (overrides ANALYSIS_WORKERS)")
	flag.StringVar(&outputDir, "out", "", "CSV output directory (overrides REPORT_OUTPUT_DIR)")
	flag.DurationVar(&timeout, "timeout", 0, "stop dispatching after this long and write what was collected")
	flag.Parse()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", envFile).Msg("Failed to load env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if countries != "" {
		cfg.Analysis.Countries = splitList(countries)
	}
	if chart != "" {
		cfg.Analysis.Chart = chart
	}
	if topLimit > 0 {
		cfg.Analysis.TopLimit = topLimit
	}
	if workers > 0 {
		cfg.Analysis.Workers = workers
	}
	if outputDir != "" {
		cfg.Sinks.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid flags")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	if err := run(cfg, timeout); err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
}

func run(cfg *config.Config, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTELLogs(cfg.OTEL.ServiceName)
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize metrics")
	}

	registry := stopwords.Default()
	if cfg.Analysis.StopwordsPath != "" {
		registry, err = stopwords.Load(cfg.Analysis.StopwordsPath)
		if err != nil {
			return err
		}
	}

	store := storeapi.NewFromConfig(ctx, cfg, metrics)
	catalogProvider := catalog.NewITunesAdapter(store, cfg.Store.FeedBaseURL, cfg.Store.SearchBaseURL)

	cacheProvider, closeCache := newCache(ctx, cfg)
	defer closeCache()

	sink, closeSinks, err := newSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	suggestionService := services.NewSuggestionService(catalogProvider, cacheProvider, cfg.Cache.TTLSeconds, metrics)
	analysisService := services.NewAnalysisService(
		catalogProvider,
		suggestionService,
		services.NewKeywordExtractionService(registry),
		sink,
		metrics,
		services.AnalysisOptions{
			Chart:           entities.ParseChart(cfg.Analysis.Chart),
			TopLimit:        cfg.Analysis.TopLimit,
			Workers:         cfg.Analysis.Workers,
			KeywordsPerApp:  cfg.Analysis.KeywordsPerApp,
			SuggestionLimit: cfg.Analysis.SuggestionLimit,
			TopSuggestions:  cfg.Analysis.TopSuggestions,
			NewAppDays:      cfg.Analysis.NewAppDays,
		},
	)

	runID := uuid.NewString()
	start := time.Now()
	log.Info().
		Str("run_id", runID).
		Int("countries", len(cfg.Analysis.Countries)).
		Str("chart", cfg.Analysis.Chart).
		Msg("Starting analysis run")

	summary, err := analysisService.Run(ctx, runID, cfg.Analysis.Countries)

	event := log.Info()
	switch {
	case errors.Is(err, context.Canceled):
		event = log.Warn().Str("reason", "interrupted")
	case errors.Is(err, context.DeadlineExceeded):
		event = log.Warn().Str("reason", "timeout")
	case err != nil:
		return err
	}
	event.
		Str("run_id", summary.RunID).
		Int("countries_written", summary.CountriesWritten).
		Int("countries_skipped", summary.CountriesSkipped).
		Int("apps_analyzed", summary.AppsAnalyzed).
		Int("apps_failed", summary.AppsFailed).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis run finished")
	return nil
}

func newCache(ctx context.Context, cfg *config.Config) (providers.CacheProvider, func()) {
	switch cfg.Cache.Backend {
	case "lru":
		lruCache, err := cache.NewLRUAdapter(cfg.Cache.LRUSize)
		if err == nil {
			return lruCache, func() {}
		}
		log.Warn().Err(err).Msg("Failed to create LRU cache, using in-memory cache")
	case "redis":
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			return cache.NewRedisAdapter(redisClient, "asoradar:"), func() { redisClient.Close() }
		}
		// Continue without Redis - suggestions are still cached for this run
		log.Warn().Err(err).Msg("Failed to initialize Redis client, using in-memory cache")
	}
	return cache.NewMemoryAdapter(), func() {}
}

// newSinks builds the enabled report sinks. The returned func closes them and
// any clients they hold.
func newSinks(ctx context.Context, cfg *config.Config) (*report.MultiSink, func(), error) {
	var sinks []providers.ReportSink
	var closers []func() error

	if cfg.Sinks.CSV {
		sinks = append(sinks, report.NewCSVAdapter(cfg.Sinks.OutputDir, cfg.Analysis.KeywordsPerApp, cfg.Analysis.TopSuggestions))
	}

	if cfg.Sinks.Postgres {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize PostgreSQL client, Postgres sink disabled")
		} else {
			adapter := database.NewReportAdapter(pgClient)
			if err := adapter.EnsureSchema(ctx); err != nil {
				pgClient.Close()
				return nil, nil, err
			}
			sinks = append(sinks, adapter)
			closers = append(closers, pgClient.Close)
		}
	}

	if cfg.Sinks.Typesense {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Typesense client, keyword index disabled")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to init Typesense schema, keyword index disabled")
		} else {
			sinks = append(sinks, search.NewKeywordIndexAdapter(tsClient))
		}
	}

	if cfg.Sinks.Events {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client, run events disabled")
		} else {
			sinks = append(sinks, events.NewReportEventSink(events.NewRedisEventBus(redisClient)))
			closers = append(closers, redisClient.Close)
		}
	}

	multi := report.NewMultiSink(sinks...)
	closeAll := func() {
		if err := multi.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close report sinks")
		}
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error().Err(err).Msg("Failed to close sink client")
			}
		}
	}
	if multi.Len() == 0 {
		closeAll()
		return nil, nil, errors.New("no report sink available: enable at least one of the SINK_* outputs")
	}
	return multi, closeAll, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
