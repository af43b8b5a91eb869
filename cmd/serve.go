package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening workflow over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	serveCmd.Flags().String("upload-dir", "", "directory for uploaded resumes (default is the OS temp dir)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.upload-dir", serveCmd.Flags().Lookup("upload-dir"))
}

func serve(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	application, err := newApplication(ctx, log)
	if err != nil {
		log.Fatal("starting the hr-screener server", zap.Error(err), zap.String("kind", errs.Kind(err)))
	}

	srv := server.New(application.workflow, server.Config{
		UploadDir:     application.config.Server.UploadDir,
		MaxUploadSize: application.config.Server.MaxUploadSize,
	}, logger.Named(log, "server"))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server shutdown", zap.Error(err))
		}
	}()

	log.Info("starting the hr-screener server", zap.String("version", version))

	if err := srv.Listen(application.config.Server.Listen); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}

	log.Info("http server stopped")
}
