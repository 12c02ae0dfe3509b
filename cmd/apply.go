package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/andresmejia3/facefx/internal/filter"
	"github.com/andresmejia3/facefx/internal/types"
	"github.com/andresmejia3/facefx/internal/utils"
	"github.com/andresmejia3/facefx/internal/worker"
	"github.com/spf13/cobra"
)

var (
	applyOpts   Options
	applyInput  string
	applyDryRun bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Draw emotion overlays onto a single frame image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runApply(cmd.Context(), applyInput, applyOpts)
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyInput, "input", "i", "", "Path to the input frame image")
	applyCmd.Flags().StringVarP(&applyOpts.FacesPath, "faces", "f", "", "JSON file with the detected faces for this frame")
	applyCmd.Flags().StringVarP(&applyOpts.OutputPath, "output", "o", "output.png", "Path to the rendered frame (.png, .jpg)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print the overlay rectangles without rendering")
	bindAssetFlags(applyCmd, &applyOpts)

	applyCmd.MarkFlagRequired("input")
	applyCmd.MarkFlagRequired("faces")
	rootCmd.AddCommand(applyCmd)
}

func runApply(ctx context.Context, input string, opts Options) error {
	force, err := validateRenderFlags(input, &opts)
	if err != nil {
		return err
	}

	faces, err := utils.ReadFaces(opts.FacesPath)
	if err != nil {
		utils.ShowError("Failed to read faces", err)
		return err
	}

	filters, err := loadFilters(ctx, opts, force, faces)
	if err != nil {
		return err
	}
	renderer := &worker.Renderer{Filters: filters, Force: force, Strict: opts.Strict}

	if applyDryRun {
		return printTargets(renderer, faces)
	}

	frame, err := utils.LoadFrame(input)
	if err != nil {
		utils.ShowError("Failed to load frame", err)
		return err
	}

	applied, skipped, err := renderer.ApplyFaces(frame, faces)
	if err != nil {
		if worker.IsFaceError(err) {
			utils.ShowError("Face could not be drawn (run without --strict to skip it)", err)
		} else {
			utils.ShowError("Rendering failed", err)
		}
		return err
	}

	if err := utils.SaveFrame(opts.OutputPath, frame); err != nil {
		utils.ShowError("Failed to save frame", err)
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Drew %d face(s), skipped %d → %s\n", applied, skipped, opts.OutputPath)
	return nil
}

// validateRenderFlags checks the options shared by apply and batch and returns the forced
// filter, if any.
func validateRenderFlags(input string, opts *Options) (filter.Kind, error) {
	if _, err := os.Stat(input); err != nil {
		utils.ShowError("Input does not exist", err)
		return "", err
	}
	if _, err := os.Stat(opts.FacesPath); err != nil {
		utils.ShowError("Faces file does not exist", err)
		return "", err
	}

	// Safety Check: Prevent overwriting the input
	inAbs, _ := filepath.Abs(input)
	outAbs, _ := filepath.Abs(opts.OutputPath)
	if inAbs == outAbs {
		err := fmt.Errorf("input and output paths must be different")
		utils.ShowError("Configuration Error", err)
		return "", err
	}

	var force filter.Kind
	if opts.ForceFilter != "" {
		k, err := filter.ParseKind(opts.ForceFilter)
		if err != nil {
			utils.ShowError("Configuration Error", err)
			return "", err
		}
		force = k
	}

	if opts.NumWorkers < 1 {
		opts.NumWorkers = 1
	}
	opts.Assets = resolveAssets(opts.AssetDir, opts.Assets)
	return force, nil
}

// neededKinds lists the filters the faces will use, so that unused assets need not exist.
func neededKinds(force filter.Kind, faces []types.FaceRecord) []filter.Kind {
	if force != "" {
		return []filter.Kind{force}
	}
	seen := map[filter.Kind]bool{filter.KindNone: true}
	kinds := []filter.Kind{filter.KindNone}
	for _, f := range faces {
		k := filter.EmotionKind(f.Emotion)
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func loadFilters(ctx context.Context, opts Options, force filter.Kind, faces []types.FaceRecord) (map[filter.Kind]filter.Filter, error) {
	db, err := assetFetcher(ctx, opts.Assets)
	if err != nil {
		utils.ShowError("Asset library unavailable", err)
		return nil, err
	}
	filters, err := filter.NewSet(ctx, opts.Assets, db, neededKinds(force, faces)...)
	if err != nil {
		utils.ShowError("Failed to load overlay assets", err)
		return nil, err
	}
	return filters, nil
}

func printTargets(r *worker.Renderer, faces []types.FaceRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FACE\tEMOTION\tFILTER\tTARGETS")
	fmt.Fprintln(w, "----\t-------\t------\t-------")

	for i, face := range faces {
		kind := r.Force
		if kind == "" {
			kind = filter.EmotionKind(face.Emotion)
		}
		targets := "-"
		if face.Area != nil {
			rects, err := filter.Targets(r.Filters[kind], *face.Area)
			if err != nil {
				targets = err.Error()
			} else if len(rects) > 0 {
				targets = fmt.Sprint(rects)
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, face.Emotion, kind, targets)
	}
	return w.Flush()
}
