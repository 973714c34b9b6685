package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/adapters/cache"
	"github.com/zatekoja/asoradar/internal/adapters/catalog"
	"github.com/zatekoja/asoradar/internal/application/services"
	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/storeapi"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
	"github.com/zatekoja/asoradar/pkg/config"
)

func main() {
	var (
		envFile string
		term    string
		country string
		limit   int
		asJSON  bool
	)
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flag.StringVar(&term, "term", "", "seed keyword")
	flag.StringVar(&country, "country", "us", "storefront code")
	flag.IntVar(&limit, "limit", services.DefaultSuggestionLimit, "number of suggestions")
	flag.BoolVar(&asJSON, "json", false, "print the result as JSON")
	flag.Parse()

	if term == "" && flag.NArg() > 0 {
		term = flag.Arg(0)
	}
	if term == "" {
		fmt.Fprintln(os.Stderr, "usage: suggest [-country us] [-limit 20] <term>")
		os.Exit(2)
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", envFile).Msg("Failed to load env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-suggest", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storeapi.NewFromConfig(ctx, cfg, nil)
	catalogProvider := catalog.NewITunesAdapter(store, cfg.Store.FeedBaseURL, cfg.Store.SearchBaseURL)
	svc := services.NewSuggestionService(catalogProvider, cache.NewMemoryAdapter(), 0, nil)

	result, err := svc.Suggest(ctx, term, country, limit)
	if err != nil {
		log.Fatal().Err(err).Str("term", term).Msg("Suggestion lookup failed")
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
		return
	}
	printResult(term, country, result)
}

func printResult(term, country string, result *entities.SuggestionResult) {
	fmt.Printf("Suggestions for %q in %s (%d candidates)\n", term, country, result.Count)
	for i, s := range result.Suggestions {
		fmt.Printf("%3d. %-40s %3d\n", i+1, s.Keyword, s.Score)
	}
}
