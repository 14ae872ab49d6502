package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/mlehmann/docshelf/internal/app"
	"github.com/mlehmann/docshelf/internal/config"
	"github.com/mlehmann/docshelf/internal/docstore"
	"github.com/mlehmann/docshelf/internal/localcache"
	"github.com/mlehmann/docshelf/internal/objectstore"
	"github.com/mlehmann/docshelf/internal/persist"
	"github.com/mlehmann/docshelf/internal/queue"
	"github.com/mlehmann/docshelf/internal/uploads"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docshelf: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docshelf",
		Short:        "Hierarchical document organizer",
		Long:         `docshelf keeps a folder/file tree with notes, icons and attachment uploads, cached locally and synced to a remote backend.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newRunCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		localOnly bool
		userID    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cache := localcache.New(cfg.CacheDir)

			var (
				treeStore docstore.TreeStore
				textStore docstore.TextStore
				objStore  objectstore.Store
				tasks     uploads.Enqueuer
			)
			if localOnly {
				objStore = objectstore.NewMemoryStore(randomSecret())
			} else {
				pool, err := docstore.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("connect database: %w", err)
				}
				defer pool.Close()
				if err := docstore.EnsureSchema(ctx, pool); err != nil {
					return fmt.Errorf("ensure schema: %w", err)
				}
				treeStore = docstore.NewTreeRepository(pool)
				textStore = docstore.NewTextRepository(pool)

				minioStore, err := objectstore.NewMinio(cfg)
				if err != nil {
					return fmt.Errorf("init object store: %w", err)
				}
				if err := minioStore.EnsureBucket(ctx); err != nil {
					return fmt.Errorf("ensure bucket: %w", err)
				}
				objStore = minioStore

				asynqClient := asynq.NewClient(asynq.RedisClientOpt{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				})
				defer asynqClient.Close()
				tasks = queue.NewClient(asynqClient)
			}

			adapter := persist.New(cache, treeStore, cfg.SaveDebounce)
			defer adapter.Flush(context.Background())

			var ctrl *app.Controller
			registry := uploads.NewRegistry(uploads.Config{
				Store:     objStore,
				Texts:     textStore,
				Tasks:     tasks,
				SignedTTL: cfg.SignedURLTTL,
				ListLimit: cfg.UploadListLimit,
				OnChange: func() {
					if ctrl != nil {
						ctrl.RequestRender()
					}
				},
				OnError: func(name string, err error) {
					fmt.Fprintf(os.Stderr, "upload %q failed: %v\n", name, err)
				},
			})

			repl := newREPL(os.Stdin, os.Stdout)
			ctrl = app.New(app.Config{
				Persist:  adapter,
				Registry: registry,
				Cache:    cache,
				OnRender: func() { repl.requestRender() },
				OnAlert: func(title, message string) {
					fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
				},
			})
			if userID != "" {
				ctrl.Login(ctx, userID)
			}
			return repl.run(ctx, ctrl)
		},
	}
	cmd.Flags().BoolVar(&localOnly, "local", false, "Run without the remote backend (in-memory object store)")
	cmd.Flags().StringVar(&userID, "user", "", "User id to start a session for")
	return cmd
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Printf("random secret: %v", err)
		return []byte("docshelf-fallback-secret")
	}
	return buf
}
