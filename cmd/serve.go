package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/registry"
	"github.com/bxl-digital/compare-cli/internal/server"
	"github.com/bxl-digital/compare-cli/pkg/backend"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comparison HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		// The fetch endpoint is optional: without a backend base URL the
		// server runs file-upload only.
		var client backend.Client
		if cfg.Backend.BaseURL != "" {
			client = newBackendClient()
		}

		srvCfg := cfg.Server
		if servePort != 0 {
			srvCfg.Port = servePort
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", srvCfg.Port),
			Handler: server.New(srvCfg, st, registry.Default(), client).Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", srvCfg.Port),
			zap.Bool("backend", client != nil))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
