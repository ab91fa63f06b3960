package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/pagebridge/pagebridge/internal/config"
	"github.com/pagebridge/pagebridge/internal/confluence"
	"github.com/pagebridge/pagebridge/internal/gitsource"
	"github.com/pagebridge/pagebridge/internal/markdown"
	"github.com/pagebridge/pagebridge/internal/reconcile"
	"github.com/pagebridge/pagebridge/internal/syncstate"
)

func main() {
	configPath := pflag.String("config", envOrDefault("PAGEBRIDGE_CONFIG", config.DefaultPath), "path to the config file")
	api := pflag.String("api", strings.TrimSpace(os.Getenv("CONFLUENCE_API")), "confluence REST API base URL")
	user := pflag.String("user", strings.TrimSpace(os.Getenv("CONFLUENCE_API_USER")), "confluence account email")
	key := pflag.String("key", strings.TrimSpace(os.Getenv("CONFLUENCE_API_KEY")), "confluence API key")
	space := pflag.StringP("space", "s", strings.TrimSpace(os.Getenv("PAGEBRIDGE_SPACE")), "target space key")
	gitDir := pflag.String("git-dir", "", "repository directory (default: current directory)")
	contentPath := pflag.String("content-path", "", "subtree of the repository to publish")
	branch := pflag.String("branch", "", "branch to publish (default: master)")
	since := pflag.String("since", strings.TrimSpace(os.Getenv("PAGEBRIDGE_SINCE")), "publish commits after this commitish (default: the stored cursor, else HEAD^)")
	stateDSN := pflag.String("state", strings.TrimSpace(os.Getenv("PAGEBRIDGE_STATE")), "cursor backend DSN (file://, memory://, postgres://)")
	dryRun := pflag.Bool("dry-run", false, "describe the work without touching the remote space")
	watch := pflag.Bool("watch", false, "keep running and publish as the branch moves")
	debounce := pflag.Duration("debounce", durationEnv("PAGEBRIDGE_DEBOUNCE", 500*time.Millisecond), "watch debounce interval")
	verbose := pflag.BoolP("verbose", "v", false, "log every action")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		explicit := pflag.CommandLine.Changed("config") || strings.TrimSpace(os.Getenv("PAGEBRIDGE_CONFIG")) != ""
		if !errors.Is(err, os.ErrNotExist) || explicit {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	apiURL := firstNonEmpty(*api, cfg.API)
	apiUser := firstNonEmpty(*user, cfg.User)
	spaceKey := firstNonEmpty(*space, cfg.Space)
	repoDir := firstNonEmpty(*gitDir, cfg.GitDir, ".")
	scope := firstNonEmpty(*contentPath, cfg.ContentPath)
	branchName := firstNonEmpty(*branch, cfg.Branch, "master")
	stateURL := firstNonEmpty(*stateDSN, cfg.State, "memory://")
	if apiURL == "" {
		log.Fatalf("api is required (--api or CONFLUENCE_API)")
	}
	if apiUser == "" {
		log.Fatalf("user is required (--user or CONFLUENCE_API_USER)")
	}
	if *key == "" {
		log.Fatalf("key is required (--key or CONFLUENCE_API_KEY)")
	}
	if spaceKey == "" {
		log.Fatalf("space is required (--space or PAGEBRIDGE_SPACE)")
	}

	source, err := gitsource.Open(repoDir)
	if err != nil {
		log.Fatalf("failed to open repository: %v", err)
	}
	backend, err := syncstate.NewBackendFromDSN(stateURL)
	if err != nil {
		log.Fatalf("failed to initialize state backend: %v", err)
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	client := confluence.NewClient(confluence.ClientOptions{
		BaseURL:  apiURL,
		Username: apiUser,
		APIKey:   *key,
		SpaceKey: spaceKey,
	})

	var logger reconcile.Logger
	if *verbose {
		logger = log.Default()
	}
	runner, err := reconcile.NewRunner(reconcile.RunnerOptions{
		Accessor: confluence.NewAccessor(client),
		Compiler: markdown.NewCompiler(),
		Logger:   logger,
		DryRun:   *dryRun,
		AfterApply: func(ctx context.Context, batchID string) error {
			return backend.Save(ctx, spaceKey, batchID)
		},
	})
	if err != nil {
		log.Fatalf("failed to initialize runner: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncOnce := func(ctx context.Context, since string) error {
		if since == "" {
			cursor, err := backend.Load(ctx, spaceKey)
			if err != nil {
				return fmt.Errorf("load cursor: %w", err)
			}
			since = cursor
		}
		if since == "" {
			since = "HEAD^"
		}
		batches, err := source.BatchesAfter(ctx, branchName, since, scope)
		if err != nil {
			return err
		}
		done, err := runner.Run(ctx, batches)
		if len(batches) == 0 {
			log.Printf("nothing to publish after %s", since)
		} else if !*dryRun {
			log.Printf("published %d of %d commits to %s", done, len(batches), spaceKey)
		}
		return err
	}

	if err := syncOnce(rootCtx, *since); err != nil {
		log.Fatalf("sync failed: %v", err)
	}
	if !*watch {
		return
	}

	if root, err := source.Root(); err == nil {
		log.Printf("watching %s for updates to %s", root, branchName)
	}
	err = source.Watch(rootCtx, branchName, *debounce, func(ctx context.Context) error {
		if err := syncOnce(ctx, ""); err != nil {
			log.Printf("sync failed: %v", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watch failed: %v", err)
	}
	log.Printf("pagebridge stopping")
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
