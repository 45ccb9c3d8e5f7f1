package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/server"
	"sol-swap/pkg/store"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the swap history backend",
	Long: `Run the REST backend that stores swap records and user sessions in Postgres.

Requires server.database_url (or SOL_SWAP_SERVER_DATABASE_URL).

Examples:
  sol-swap serve
  SOL_SWAP_SERVER_ADDR=:9000 sol-swap serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply the schema on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	log := logger.Named(logger.Log, "serve")

	if cfg.Server.DatabaseURL == "" {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("server.database_url is required to run the backend"))
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := store.New(connectCtx, cfg.Server.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Ping(connectCtx); err != nil {
		return err
	}
	if !skipMigrate {
		if err := st.Migrate(connectCtx); err != nil {
			return err
		}
		log.Info("schema ready")
	}

	srv := server.New(server.Options{
		Addr:       cfg.Server.Addr,
		SessionTTL: cfg.Server.SessionTTL,
		Store:      st,
		Logger:     logger.Log,
	})
	log.Info("starting backend", zap.String("addr", cfg.Server.Addr))
	return srv.Start(ctx)
}
