package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/andresmejia3/facefx/internal/types"
	"github.com/andresmejia3/facefx/internal/utils"
	"github.com/andresmejia3/facefx/internal/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	batchOpts  Options
	batchInput string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render a directory of frames from a JSONL face log",
	Long: `Reads one JSON record per line from the faces file ({"frame": "...", "faces": [...]}),
draws the overlays for each frame and writes the result under the output directory
with the same file name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBatch(cmd, batchInput, batchOpts)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Directory holding the input frames")
	batchCmd.Flags().StringVarP(&batchOpts.FacesPath, "faces", "f", "", "JSONL file with one frame record per line")
	batchCmd.Flags().StringVarP(&batchOpts.OutputPath, "output", "o", "out", "Directory for the rendered frames")
	batchCmd.Flags().IntVarP(&batchOpts.NumWorkers, "engines", "e", 1, "Number of parallel render workers")
	bindAssetFlags(batchCmd, &batchOpts)

	batchCmd.MarkFlagRequired("input")
	batchCmd.MarkFlagRequired("faces")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, input string, opts Options) error {
	ctx := cmd.Context()
	force, err := validateRenderFlags(input, &opts)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.FacesPath)
	if err != nil {
		utils.ShowError("Failed to open faces file", err)
		return err
	}
	records, err := utils.ReadFrameRecords(f)
	f.Close()
	if err != nil {
		utils.ShowError("Failed to read faces file", err)
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No frame records found.")
		return nil
	}

	var allFaces []types.FaceRecord
	for _, rec := range records {
		allFaces = append(allFaces, rec.Faces...)
	}
	filters, err := loadFilters(ctx, opts, force, allFaces)
	if err != nil {
		return err
	}

	cfg := worker.Config{
		NumWorkers: opts.NumWorkers,
		InputDir:   input,
		OutputDir:  opts.OutputPath,
		Renderer:   &worker.Renderer{Filters: filters, Force: force, Strict: opts.Strict},
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("🎭 Rendering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var applied, skipped, failed int
	runErr := worker.Run(ctx, cfg, records, func(res worker.Result) {
		bar.Add(1)
		applied += res.Applied
		skipped += res.Skipped
		if res.Err != nil {
			failed++
			if !opts.Strict {
				// Clear the bar line before printing so the warning is readable
				bar.Clear()
				fmt.Fprintf(os.Stderr, "⚠️  %s: %v\n", res.Frame, res.Err)
			}
		}
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if runErr != nil {
		if errors.Is(runErr, ctx.Err()) {
			fmt.Fprintln(os.Stderr, "🛑 Batch cancelled.")
		} else if worker.IsFaceError(runErr) {
			utils.ShowError("Face could not be drawn (run without --strict to skip it)", runErr)
		} else {
			utils.ShowError("Batch failed", runErr)
		}
		return runErr
	}

	fmt.Fprintf(os.Stderr, "✅ %d frame(s) rendered to %s: %d face(s) drawn, %d skipped, %d frame(s) failed\n",
		len(records)-failed, opts.OutputPath, applied, skipped, failed)
	return nil
}
