package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"social-monitor/internal/analytics"
	"social-monitor/internal/api"
	"social-monitor/internal/config"
	"social-monitor/internal/db"
	"social-monitor/pkg/analyzer"
	"social-monitor/pkg/contributor"
	"social-monitor/pkg/post"
	"social-monitor/pkg/productarea"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.IsProd)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer pool.Close()

	posts := post.NewPgStore(pool)
	contributors := contributor.NewPgStore(pool)
	areas := productarea.NewPgStore(pool)
	stats := analytics.NewStore(pool)

	// Ensure tables exist. Contributors first: the posts queries join the
	// replies table it owns.
	if err := contributors.EnsureTable(ctx); err != nil {
		logger.Fatal("ensure contributors tables", zap.Error(err))
	}
	if err := posts.EnsureTable(ctx); err != nil {
		logger.Fatal("ensure posts tables", zap.Error(err))
	}
	if err := areas.EnsureTable(ctx); err != nil {
		logger.Fatal("ensure product areas table", zap.Error(err))
	}

	var an analyzer.Analyzer
	switch cfg.Analyzer {
	case "ollama":
		an = analyzer.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		an = analyzer.NewLexicon()
	}

	server := api.New(api.Deps{
		Posts:        posts,
		Contributors: contributors,
		Areas:        areas,
		Stats:        stats,
		Analyzer:     an,
		Auth:         api.AuthConfig{Enabled: cfg.AuthEnabled, Secret: cfg.AuthSecret},
		Logger:       logger,
	})

	logger.Info("social-monitor listening",
		zap.String("addr", cfg.Listen),
		zap.Bool("auth", cfg.AuthEnabled),
		zap.String("analyzer", cfg.Analyzer),
	)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}

func newLogger(isProd bool) (*zap.Logger, error) {
	if isProd {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
