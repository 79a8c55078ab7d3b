package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/cli"
	httpAdapter "github.com/aretw0/wizvis/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [definition]",
	Short: "Start the HTTP inspector API",
	Long: `Serves the inspector as a JSON API (states, tree, active states, events,
data model edits) with server-sent refresh notifications on /events.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := appConfig.HTTP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		opts := newInspectorOptions(cmd)
		var handlerOpts []httpAdapter.Option
		if appConfig.HTTP.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			opts.Registry = reg
			handlerOpts = append(handlerOpts, httpAdapter.WithGatherer(reg))
		}
		handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))

		insp, err := cli.NewInspector(opts)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if len(args) > 0 {
			var opts []wizvis.OpenOption
			if data, _ := cmd.Flags().GetString("data"); data != "" {
				opts = append(opts, wizvis.WithDataPath(data))
			}
			if err := insp.Open(sigCtx, args[0], opts...); err != nil {
				return fmt.Errorf("error opening %s: %w", args[0], err)
			}
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			watcher, err := cli.NewDefinitionWatcher(insp, cli.DefaultWatchDebounce, logger)
			if err != nil {
				return err
			}
			go watcher.Run(sigCtx, cmd.ErrOrStderr())
		}

		srv := httpAdapter.NewServer(fmt.Sprintf(":%d", port), httpAdapter.NewHandler(insp, handlerOpts...))

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting WizVis server", "addr", srv.Addr, "metrics", appConfig.HTTP.Metrics)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCtx.Done():
			logger.Info("Shutting down server", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides http.port)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the definition when the file changes")
	serveCmd.Flags().String("data", "", "JSON baseline overriding the definition's data src")
}
