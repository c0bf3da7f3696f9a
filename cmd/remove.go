package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/service"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRemoveCmd(opts *options) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "remove <input> <output>",
		Short: "Remove the background from a local image",
		Long: `Runs the same pipeline as the HTTP server on a local file and writes a
transparent PNG.

Use --category to skip classification.`,
		Example: `  # Let the classifier decide
  cutoutkit remove photo.jpg photo.png

  # Force the threshold path for a logo on white paper
  cutoutkit remove --category flat-graphic logo.jpg logo.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			var forced model.Category
			if category != "" {
				c, ok := model.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q, expected %s or %s",
						category, model.CategoryFlatGraphic, model.CategoryPhotographic)
				}
				forced = c
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var result *service.Result
			if forced != "" {
				result, err = a.pipeline.ProcessAs(cmd.Context(), data, forced)
			} else {
				result, err = a.pipeline.Process(cmd.Context(), data)
			}
			if err != nil {
				var vErr *service.ValidationError
				if errors.As(err, &vErr) {
					return errors.New(vErr.Message)
				}
				return err
			}

			if err := os.WriteFile(out, result.PNG, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			utils.Logger.Info("background removed",
				zap.String("input", in),
				zap.String("output", out),
				zap.String("category", result.Category.String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Force a category: flat-graphic or photographic")

	return cmd
}
