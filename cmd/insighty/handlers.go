package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/SHASHWATSINHA024/insighty/internal/config"
	"github.com/SHASHWATSINHA024/insighty/internal/dashboard"
	"github.com/SHASHWATSINHA024/insighty/internal/refresh"
	"github.com/SHASHWATSINHA024/insighty/internal/scheduler"
	"github.com/SHASHWATSINHA024/insighty/internal/store"
	"github.com/SHASHWATSINHA024/insighty/pkg/server"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildOrchestrator(cfg *config.Config, db store.Store) *refresh.Orchestrator {
	reddit := source.NewReddit(
		cfg.Sources.Reddit.ClientID,
		cfg.Sources.Reddit.ClientSecret,
		cfg.Sources.Reddit.UserAgent,
		nil,
	)
	twitter := source.NewTwitter(
		cfg.Sources.Twitter.BearerToken,
		cfg.Sources.Twitter.NitterURL,
		cfg.Sources.Twitter.Accounts,
		nil,
	)
	gtrends := source.NewGoogleTrends(
		cfg.Sources.GoogleTrends.APIKey,
		cfg.Sources.GoogleTrends.Geo,
		cfg.Sources.GoogleTrends.Limit,
	)

	return refresh.New(db, db, reddit, twitter, gtrends,
		cfg.Sources.Reddit.GlobalLimit,
		cfg.Schedule.ParseRetention(),
	)
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	orch := buildOrchestrator(cfg, db)
	assembler := dashboard.New(db, db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(orch, cfg.Schedule.ParseRefreshInterval())
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	srv := server.New(db, assembler, orch, port)
	return srv.ListenAndServe()
}

func runRefresh() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	orch := buildOrchestrator(cfg, db)
	res, err := orch.Run(context.Background())
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	fmt.Printf("refreshed: reddit global %d, reddit scoped %d, twitter %d, google trends %d, cleaned %d\n",
		res.RedditGlobal, res.RedditScoped, res.Twitter, res.GoogleTrends, res.Cleaned)
	return nil
}

func runTrends(jsonOutput bool, src string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	trends, err := db.List(context.Background(), store.ListOpts{
		Source:  source.SourceType(src),
		ByScore: true,
		Limit:   limit,
	})
	if err != nil {
		return fmt.Errorf("list trends: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trends)
	}

	if len(trends) == 0 {
		fmt.Println("no trends stored (try: insighty refresh)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSOURCE\tTOPIC\tTITLE\tUPDATED")
	for _, t := range trends {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			t.Score, t.Source, t.Topic, t.Title,
			t.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
