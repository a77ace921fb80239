package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/memodeck/memodeck/internal/auth"
	"github.com/memodeck/memodeck/internal/config"
	"github.com/memodeck/memodeck/internal/storage"
	"github.com/memodeck/memodeck/internal/sync"
	"github.com/memodeck/memodeck/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("memodeck", pflag.ExitOnError)
	flags.String("config", "", "path to a yaml config file")
	flags.String("data_dir", "data", "directory holding the per-user databases")
	flags.String("listen_addr", ":8080", "HTTP listen address")
	flags.String("log_level", "info", "log level: debug, info, warn or error")
	flags.Int("bcrypt_cost", 0, "bcrypt work factor, 0 for the library default")
	flags.String("import_dir", "", "import deck files from this directory, then exit")
	flags.String("import_git", "", "import deck files from this git URL, then exit")
	flags.String("import_user", "", "user whose partition receives imported decks")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	registry, err := auth.Open(filepath.Join(cfg.DataDir, "users.db"), cfg.BcryptCost)
	if err != nil {
		slog.Error("failed to open user registry", "error", err)
		os.Exit(1)
	}
	defer registry.Close()

	partitions := storage.NewManager(cfg.DataDir)
	defer partitions.Close()

	if cfg.ImportDir != "" || cfg.ImportGit != "" {
		if err := runImport(cfg, partitions); err != nil {
			slog.Error("import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	serve(cfg, registry, partitions)
}

// runImport performs a one-shot deck import into a user's partition.
func runImport(cfg *config.Config, partitions *storage.Manager) error {
	if cfg.ImportUser == "" {
		return errors.New("--import_user is required with --import_dir or --import_git")
	}
	p, err := partitions.PartitionFor(cfg.ImportUser)
	if err != nil {
		return err
	}

	if cfg.ImportGit != "" {
		checkout := filepath.Join(cfg.DataDir, "repos", cfg.ImportUser)
		_, err = sync.ImportGit(p, cfg.ImportGit, checkout)
		return err
	}
	_, err = sync.ImportDir(p, cfg.ImportDir)
	return err
}

func serve(cfg *config.Config, registry *auth.Registry, partitions *storage.Manager) {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.NewServer(registry, partitions),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "addr", cfg.ListenAddr, "data_dir", cfg.DataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
