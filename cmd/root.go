package cmd

import (
	"fmt"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options 子命令共享的状态，在 PersistentPreRunE 中填充
type options struct {
	configPath string
	build      model.VersionResponse
	cfg        *config.Config
}

func NewRootCmd(build model.VersionResponse) *cobra.Command {
	opts := &options{build: build}

	cmd := &cobra.Command{
		Use:   "cutoutkit",
		Short: "Background removal service for flat graphics and photos",
		Long: `CutoutKit removes the background from an uploaded image and returns a
transparent PNG.

Each image is classified as a flat graphic or a photo. Flat graphics are cut
out locally with a brightness threshold, photos are sent to a rembg
segmentation server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr := config.Load(opts.configPath)
			if loadErr != nil {
				cfg = config.New("")
			}
			opts.cfg = cfg

			if err := utils.InitLogger(cfg.Server.Mode); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if loadErr != nil {
				utils.Logger.Warn("failed to load config, using defaults",
					zap.String("path", opts.configPath), zap.Error(loadErr))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			utils.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRemoveCmd(opts))

	return cmd
}
