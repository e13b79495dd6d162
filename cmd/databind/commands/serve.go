package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/livefir/databind/internal/page"
	"github.com/livefir/databind/internal/preview"
)

func newServeCommand(opts *Options) *cobra.Command {
	var (
		p    page.Page
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live-reloading preview of a bound template",
		Long: `serve renders the template, serves it over HTTP and re-renders whenever
the template or data file changes. Open pages reload automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, err := opts.binder(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}
			p.Minify = cfg.Minify

			logger := opts.logger(cmd)
			server := preview.NewServer(&p, b, preview.WithLogger(logger))
			if _, err := server.Refresh(); err != nil {
				logger.Printf("Warning: initial render failed: %v", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watchErr := make(chan error, 1)
			go func() { watchErr <- server.Watch(ctx) }()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", p.TemplatePath, addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			stop()
			return <-watchErr
		},
	}

	cmd.Flags().StringVarP(&p.TemplatePath, "template", "t", "", "HTML template file")
	cmd.Flags().StringVarP(&p.DataPath, "data", "d", "", "YAML or JSON data file")
	cmd.Flags().BoolVar(&p.Fragment, "fragment", false, "treat the template as a fragment, not a full document")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
