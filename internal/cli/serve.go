package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fabricpdf/pkg/observability"
	"github.com/matzehuels/fabricpdf/pkg/pipeline"
	"github.com/matzehuels/fabricpdf/pkg/server"
	"github.com/matzehuels/fabricpdf/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP server",
		Long: `Run the HTTP server exposing POST /fabric/convert-to-pdf.

The server listens on :4000 unless PORT, server.addr or --addr say otherwise,
and shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config and PORT)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	observability.NewLogHooks(c.Logger).Install()
	defer observability.Reset()

	renderer, imgCache, err := c.newRenderer(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer imgCache.Close()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(renderer, st, c.Logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := runner.Close(closeCtx); err != nil {
			c.Logger.Warn("failed to close store", "err", err)
		}
	}()

	opener, _ := st.(store.Opener)
	srv := server.New(runner, opener, server.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		AuthSecret:   cfg.Server.AuthSecret,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Convert:      c.pipelineOptions(cfg),
		Logger:       c.Logger,
	})

	c.Logger.Info("starting server",
		"store", st.Name(),
		"cache", cfg.Cache.Backend,
		"auth", cfg.Server.AuthSecret != "")

	httpSrv := srv.HTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	return server.Run(ctx, httpSrv, cfg.Server.ShutdownTimeout, c.Logger)
}
