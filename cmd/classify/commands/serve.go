package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/api"
	"github.com/dyluth/classify/internal/printer"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the classify HTTP API.

Every endpoint except GET /health requires the X-Api-Key header. The key is
read from API_KEY; when unset a random key is generated and printed once.

Endpoints:
  POST   /classify           {"content": "<text or http(s) URL>"}
  GET    /tags
  GET    /content?tags=a,b
  GET    /content/{id}
  GET    /content/{id}/text
  DELETE /content/{id}
  POST   /reindex
  GET    /health`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from api.host and api.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.EnsureAPIKey() {
		printer.Warning("No API_KEY configured, generated random key: %s\n", a.cfg.API.APIKey)
	}

	srv, err := api.NewServer(a.engine, a.query, a.cfg.API.APIKey, a.backends.Checks(), a.logger)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Addr()
	}
	printer.Step("Listening on http://%s\n", addr)

	return srv.ListenAndServe(ctx, addr)
}
