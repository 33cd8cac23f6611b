package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/logging"
	"github.com/conneroisu/mdserve/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content server",
	Long: `Start the content server.

In development mode (the default) the server watches the content and
template directories, invalidates its cache on every change, and pushes
a reload notification to connected browsers over a websocket. In
production mode watching is disabled and resolved pages are cached with
modification-time validation.

Examples:
  mdserve serve                          # Serve content/ on localhost:8080
  mdserve serve --port 3000              # Custom port
  mdserve serve --mode production        # Cache aggressively, no watching
  mdserve serve --content docs --templates layouts`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringP("content", "c", "content", "Content directory")
	serveCmd.Flags().StringP("templates", "t", "templates", "Templates directory")
	serveCmd.Flags().StringP("mode", "m", "development", "Serving mode (development, production)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("dirs.content", serveCmd.Flags().Lookup("content"))
	viper.BindPFlag("dirs.templates", serveCmd.Flags().Lookup("templates"))
	viper.BindPFlag("mode", serveCmd.Flags().Lookup("mode"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	fmt.Printf("Serving %s at http://%s\n", cfg.Dirs.Content, cfg.Addr())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
