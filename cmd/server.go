package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/denysvitali/photowall-server/pkg/config"
	"github.com/denysvitali/photowall-server/pkg/server"
	"github.com/denysvitali/photowall-server/pkg/telemetry"
)

// serverCmd represents the serve command
var serverCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the photo wall server",
	Long: `Start the HTTP server. Requests under the API prefix return the file
list of an asset directory as JSON; everything else is served as a static
file from the root directory.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("host", "", "Interface to listen on (default all)")
	serverCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serverCmd.Flags().Bool("runtime-info", false, "Expose /_runtime/alive and /_runtime/info")
	serverCmd.Flags().Bool("enable-telemetry", false, "Enable OpenTelemetry tracing")
	serverCmd.Flags().String("otel-endpoint", "", "OpenTelemetry endpoint (if empty, uses auto-export)")

	_ = viper.BindPFlag("server.host", serverCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serverCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.runtime_info", serverCmd.Flags().Lookup("runtime-info"))
	_ = viper.BindPFlag("telemetry.enabled", serverCmd.Flags().Lookup("enable-telemetry"))
	_ = viper.BindPFlag("telemetry.endpoint", serverCmd.Flags().Lookup("otel-endpoint"))
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		logger.Info("Initializing OpenTelemetry")
		cleanup, err := telemetry.Initialize(ctx, cfg.Telemetry, logger)
		if err != nil {
			logger.Warnf("Failed to initialize telemetry: %v", err)
		} else {
			defer cleanup()
		}
	}

	srv := server.New(cfg, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	printBanner(cmd.OutOrStdout(), cfg)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		stop()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		logger.Info("Server stopped")
		return nil
	}
}

func printBanner(w io.Writer, cfg *config.Config) {
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}

	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Faint)

	title.Fprintln(w, "Photo wall server")
	fmt.Fprintf(w, "%s http://%s:%d\n", label.Sprint("URL:   "), host, cfg.Server.Port)
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Root:  "), cfg.Server.Root)
	for _, alias := range cfg.Assets.Aliases {
		dir := filepath.ToSlash(filepath.Join(cfg.Assets.Dir, alias)) + "/"
		fmt.Fprintf(w, "%s %s\n", label.Sprintf("%-7s", alias+":"), dir)
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}
