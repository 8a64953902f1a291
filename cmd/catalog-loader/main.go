package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/ftrbnd/heardle/internal/postgres"
)

// Catalog is the YAML song catalog file format
type Catalog struct {
	Songs []domain.Song `yaml:"songs"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	catalogPath := flag.String("catalog", "songs.yaml", "Path to the song catalog file")
	seedPuzzle := flag.Bool("seed-puzzle", true, "Seed the daily puzzle row after loading")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	data, err := os.ReadFile(*catalogPath)
	if err != nil {
		logger.Error("failed to read catalog file", "path", *catalogPath, "error", err)
		os.Exit(1)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error("failed to parse catalog file", "path", *catalogPath, "error", err)
		os.Exit(1)
	}
	if len(catalog.Songs) == 0 {
		logger.Error("catalog file contains no songs", "path", *catalogPath)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	loaded := 0
	for _, song := range catalog.Songs {
		if song.Name == "" {
			logger.Warn("skipping song without a name", "link", song.Link)
			continue
		}
		if err := repo.UpsertSong(ctx, song); err != nil {
			logger.Error("failed to upsert song", "name", song.Name, "error", err)
			os.Exit(1)
		}
		loaded++
	}
	logger.Info("catalog loaded", "songs", loaded)

	if *seedPuzzle {
		nextBoundary := time.Now().Truncate(cfg.Rotation.Period).Add(cfg.Rotation.Period)
		if err := repo.InitDailyPuzzle(ctx, nextBoundary); err != nil {
			logger.Error("failed to seed daily puzzle", "error", err)
			os.Exit(1)
		}
		logger.Info("daily puzzle seeded", "next_rotation", nextBoundary)
	}

	fmt.Printf("loaded %d songs from %s\n", loaded, *catalogPath)
}
