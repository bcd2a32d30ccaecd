package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/internal/cache"
	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/database"
	"github.com/beesaferoot/yatube/internal/media"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/internal/web"
	"github.com/beesaferoot/yatube/migration"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			autoMigrate, _ := cmd.Flags().GetBool("migrate")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabaseURL, cfg.Debug)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if autoMigrate {
				applied, err := migration.NewMigrator(db).Up()
				if err != nil {
					return err
				}
				for _, m := range applied {
					log.Printf("Applied migration %s %s", m.Version, m.Name)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := store.New(db)

			storage, err := newStorage(cfg)
			if err != nil {
				return err
			}

			pageCache, closeCache, err := newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			srv, err := web.NewServer(web.Options{
				Config: cfg,
				Store:  st,
				Media:  storage,
				Cache:  pageCache,
			})
			if err != nil {
				return err
			}

			if n, err := st.PurgeExpiredSessions(ctx); err != nil {
				log.Printf("Error purging expired sessions: %v", err)
			} else if n > 0 {
				log.Printf("Purged %d expired sessions", n)
			}

			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Listening on %s", cfg.Addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != http.ErrServerClosed {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Println("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")

	return cmd
}

func newStorage(cfg *config.Config) (media.Storage, error) {
	if cfg.S3Bucket != "" {
		log.Printf("Storing media in s3://%s", cfg.S3Bucket)
		return media.NewS3Storage(cfg.S3Bucket, cfg.S3Region)
	}
	if err := os.MkdirAll(cfg.MediaRoot, 0755); err != nil {
		return nil, err
	}
	return media.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL), nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(nil), func() {}, nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}
