package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/relay"
	"github.com/aki/nexus/internal/core/schedule"
)

func newMergeOCRCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "merge-ocr",
		Short: "Fold OCR sidecar text into archived results",
		Long: `For every archived result in the directory that has no received.text,
copy the text of its -ocr.txt sidecar into received.text.`,
		Example: `  # Merge into processed/ok of the configured processed_dir
  nexus merge-ocr

  # Merge into another directory
  nexus merge-ocr --dir processed/error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMergeOCR(cmd, dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of archived results (default: the ok archive)")
	return cmd
}

func runMergeOCR(cmd *cobra.Command, dir string) error {
	if dir == "" {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		dir = newStore(settings, nil, nil).OKDir()
	}

	updated, err := relay.MergeSidecars(dir, schedule.Real(), CreateQuietLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(map[string]any{
			"dir":     dir,
			"updated": updated,
		})
	}
	ui.Success("Merged %d sidecar(s) in %s", updated, dir)
	return nil
}
