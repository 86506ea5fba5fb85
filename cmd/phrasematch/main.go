// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/phrasematch"
	"github.com/poiesic/phrasematch/config"
	"github.com/poiesic/phrasematch/embedding"
	"github.com/poiesic/phrasematch/text"
	"github.com/urfave/cli/v2"
)

// engineOptions are appended to every engine the commands open.
var engineOptions []phrasematch.EngineOption

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "phrasematch",
		Usage: "Hybrid lexical and semantic phrase matching over a topic catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
				EnvVars: []string{"PHRASEMATCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file (defaults to ./.env when present)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Build the index and answer one query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print the normalized query and the output of each matching path",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Override search.top_k",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Override search.threshold",
						Value: -1,
					},
				},
			},
			{
				Name:   "repl",
				Usage:  "Build the index once and answer queries read from stdin",
				Action: replCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print the normalized query and the output of each matching path",
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Build the index to populate the embedding cache and report statistics",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N phrases",
						Value: 100,
					},
				},
			},
			{
				Name:   "validate-synonyms",
				Usage:  "Report words that belong to more than one synonym group",
				Action: validateSynonymsCommand,
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

func openEngine(ctx context.Context, cfg *config.Config, opts ...phrasematch.EngineOption) (*phrasematch.Engine, error) {
	engine, err := phrasematch.NewEngine(cfg, append(opts, engineOptions...)...)
	if err != nil {
		return nil, err
	}
	if _, err := engine.Reload(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return engine, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if k := c.Int("top-k"); k > 0 {
		cfg.Search.TopK = k
	}
	if threshold := c.Float64("threshold"); threshold >= 0 {
		cfg.Search.Threshold = float32(threshold)
	}

	engine, err := openEngine(c.Context, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	return runQuery(c.Context, c.App.Writer, engine, query, c.Bool("explain"))
}

func replCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c.Context, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	return repl(c.Context, c.App.Reader, c.App.Writer, engine, c.Bool("explain"))
}

func repl(ctx context.Context, in io.Reader, out io.Writer, engine *phrasematch.Engine, explain bool) error {
	fmt.Fprintf(out, "Ready: %d phrases indexed. Type a query, or \"exit\" to quit.\n", engine.Index().Len())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := runQuery(ctx, out, engine, query, explain); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runQuery(ctx context.Context, out io.Writer, engine *phrasematch.Engine, query string, explain bool) error {
	if explain {
		results, err := engine.SearchWithMonitor(ctx, query, &explainMonitor{out: out})
		if err != nil {
			return err
		}
		renderResults(out, results)
		return nil
	}

	results, err := engine.Search(ctx, query)
	if err != nil {
		return err
	}
	renderResults(out, results)
	return nil
}

func warmCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Cache.Path == "" {
		slog.Warn("cache.path is not set; embeddings will not be persisted")
	}

	interval := c.Int("report-interval")
	if interval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	tracker := embedding.NewProgressTracker(c.App.ErrWriter, "phrases", interval)

	engine, err := phrasematch.NewEngine(cfg, append([]phrasematch.EngineOption{phrasematch.WithProgress(tracker)}, engineOptions...)...)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Sources: %d\n", len(cfg.Sources))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := engine.Reload(c.Context)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Records:        %d\n", stats.Records)
	fmt.Fprintf(c.App.Writer, "Skipped:        %d\n", stats.Skipped)
	fmt.Fprintf(c.App.Writer, "Entries:        %d\n", stats.Entries)
	fmt.Fprintf(c.App.Writer, "Unique phrases: %d\n", stats.UniquePhrases)
	fmt.Fprintf(c.App.Writer, "Failed batches: %d\n", stats.FailedBatches)
	fmt.Fprintf(c.App.Writer, "Failed phrases: %d\n", stats.FailedPhrases)
	fmt.Fprintf(c.App.Writer, "Cache hits:     %d\n", stats.Cache.Hits)
	fmt.Fprintf(c.App.Writer, "Cache misses:   %d\n", stats.Cache.Misses)
	return nil
}

func validateSynonymsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	synonyms, conflicts := text.NewSynonymMap(cfg.Groups(), slog.Default())
	fmt.Fprintf(c.App.Writer, "%d groups, %d members\n", len(cfg.SynonymGroups), synonyms.Len())
	if len(conflicts) == 0 {
		fmt.Fprintln(c.App.Writer, "No conflicts.")
		return nil
	}

	for _, conflict := range conflicts {
		fmt.Fprintf(c.App.Writer, "%q: group %q overrides group %q\n",
			conflict.Member, conflict.Current, conflict.Previous)
	}
	return cli.Exit(fmt.Sprintf("%d conflicting synonym members", len(conflicts)), 1)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
