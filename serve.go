package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voting-registrar/api"
	"voting-registrar/ledger"
	"voting-registrar/service"
	"voting-registrar/storage"
)

func init() {
	flags := serveCmd.Flags()
	flags.IntVar(&config.Port, "port", 8080, "Server port")
	flags.StringVar(&config.StorageDir, "storage", "data", "Directory for the ballot ledger and registrar key")
	flags.StringVar(&config.RegistrarName, "registrar-name", "Registrar", "Name written into registration certificates")
	flags.DurationVar(&config.TokenTTL, "ott-ttl", 30*time.Minute, "Lifetime of admission tokens")
	flags.IntVar(&config.TokenLength, "ott-length", 30, "Characters in admission tokens")
	flags.DurationVar(&config.PurgeInterval, "purge-interval", 5*time.Minute, "How often expired admission tokens are dropped")
	rootCmd.AddCommand(serveCmd)

	// running the binary without a subcommand serves
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.RunE = serveCmd.RunE
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registrar HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()
		return serve(ctx, config)
	},
}

func serve(ctx context.Context, config Config) error {
	if err := config.validate(); err != nil {
		return err
	}
	logger := newLogger()

	storagePath, err := filepath.Abs(config.StorageDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return fmt.Errorf("failed to setup storage: %w", err)
	}

	keyPair, err := service.LoadOrGenerateRegistrarKey(storagePath, config.KidLength)
	if err != nil {
		return err
	}

	store, err := storage.NewJSONStore(storagePath)
	if err != nil {
		return err
	}
	ballots, err := ledger.Open(ctx, store)
	if err != nil {
		return err
	}
	status := ballots.Status()
	logger.Info().
		Int("blocks", status.Length).
		Uint64("reserved", status.Reserved).
		Str("last_hash", status.LastHash).
		Msg("ballot ledger loaded")

	tokens := storage.NewTokenStore(rand.Reader, nil)
	registrar, err := service.NewRegistrar(service.Config{
		Name:        config.RegistrarName,
		TokenTTL:    config.TokenTTL,
		TokenLength: config.TokenLength,
	}, keyPair, tokens, ballots, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize registrar: %w", err)
	}
	logger.Info().Str("kid", keyPair.PKey.Kid).Str("name", config.RegistrarName).Msg("registrar key ready")

	go service.RunTokenPurge(ctx, tokens, config.PurgeInterval, logger)

	server := api.NewServer(registrar, logger)
	if err := server.Start(ctx, fmt.Sprintf(":%d", config.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
