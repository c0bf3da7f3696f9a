package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/TIANLI0/CutoutKit/handler"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *options) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the background removal HTTP server",
		Long: `Starts the HTTP server.

POST an image as multipart field "image" to /smart-upload or /api/v1/remove
and receive a transparent PNG. GET / serves the upload page.`,
		Example: `  # Start server on the configured port (default :5000)
  cutoutkit serve

  # Start server on a custom port with a config file
  cutoutkit serve --config ./config.yaml --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Server.Port = ":" + port
			}

			utils.Logger.Info("starting CutoutKit server",
				zap.String("version", opts.build.Version),
				zap.String("build_time", opts.build.BuildTime),
				zap.String("git_commit", opts.build.GitCommit),
				zap.String("git_branch", opts.build.GitBranch))

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					utils.Logger.Warn("failed to release resources", zap.Error(err))
				}
			}()

			if err := a.monitor.Start(cfg.Segmenter.HealthSchedule); err != nil {
				return err
			}
			defer a.monitor.Stop()

			gin.SetMode(cfg.Server.Mode)
			r := handler.NewRouter(
				handler.NewUploadHandler(&cfg.Upload, a.pipeline),
				handler.NewHealthHandler(opts.build, a.monitor),
				cfg.Server.StaticDir,
			)

			server := &http.Server{
				Addr:         cfg.Server.Port,
				Handler:      r,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			serverErr := make(chan error, 1)
			go func() {
				utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				utils.Logger.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					utils.Logger.Error("server shutdown failed", zap.Error(err))
					return err
				}
				utils.Logger.Info("server stopped")
				return nil
			case err := <-serverErr:
				utils.Logger.Error("failed to start server", zap.Error(err))
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on, overrides server.port")

	return cmd
}
