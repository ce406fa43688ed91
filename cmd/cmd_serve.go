package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"gmaps2nav/server"
)

var serveOptions = struct {
	Addr string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the push endpoint",
	Long: `Serves POST /push, which resolves a share link and pushes its navigation
URL, and GET /resolve, which only resolves. Both require server.api_key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("addr") {
			settings.Server.Addr = serveOptions.Addr
		}
		if err := settings.ValidateServer(); err != nil {
			return err
		}

		if rootOptions.Verbosity < 2 {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Config{
			Addr:      settings.Server.Addr,
			APIKey:    settings.Server.APIKey,
			RateLimit: settings.Server.RateLimit,
			Burst:     settings.Server.Burst,
		}, newService(settings))

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", ":8080", "listen address")
}
