package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/infrastructure/logging"
	"github.com/ersonp/kinship/internal/interfaces/http/router"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the family graph over HTTP",
		Long: `Starts the JSON API for the selected family. Listens on server.addr from
.kin/config.yaml (or KIN_SERVER_ADDR) unless --addr is given, and shuts
down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withFamily(ctx, func(d *Deps) error {
				cfg := d.Config
				if globalLogLevel == "" {
					logging.Init(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
				}
				if addr != "" {
					cfg.Server.Addr = addr
				}
				if cfg.Server.APIKey == "" {
					logging.FromContext(ctx).Warn("api key not set, the API is unauthenticated")
				}

				gin.SetMode(gin.ReleaseMode)
				srv := router.NewServer(cfg.Server, router.New(cfg.Server, d.Family))
				if err := srv.Run(ctx); err != nil {
					return fmt.Errorf("running server: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")

	return cmd
}
