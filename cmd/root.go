package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/andresmejia3/facefx/internal/filter"
	"github.com/andresmejia3/facefx/internal/overlay"
	"github.com/andresmejia3/facefx/internal/store"
	"github.com/spf13/cobra"
)

// Options holds shared configuration for the apply and batch commands
type Options struct {
	FacesPath   string
	OutputPath  string
	ForceFilter string
	Strict      bool
	NumWorkers  int
	AssetDir    string
	Assets      filter.Assets
}

var (
	// DB is the asset store connection, opened on demand by commands that need it
	DB *store.Store
	// dbURL is the connection string
	dbURL string
	// verbose enables debug logging
	verbose bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "facefx",
	Short:   "Emotion overlay renderer for detected faces",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		filter.SetLogger(logger)

		// If no flag was provided, try to build the connection string from the environment
		if dbURL == "" {
			if host := os.Getenv("POSTGRES_HOST"); host != "" {
				user := os.Getenv("POSTGRES_USER")
				pass := os.Getenv("POSTGRES_PASSWORD")
				name := os.Getenv("POSTGRES_DB")
				port := os.Getenv("POSTGRES_PORT")
				if port == "" {
					port = "5432"
				}
				dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
			} else {
				// Fallback to local default if no env vars are present
				dbURL = "postgres://localhost:5432/facefx"
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
	},
}

// openDB connects to the asset store once per process.
func openDB(ctx context.Context) (*store.Store, error) {
	if DB != nil {
		return DB, nil
	}
	s, err := store.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = s
	return DB, nil
}

// assetFetcher returns the store only when some asset location points into it.
func assetFetcher(ctx context.Context, assets filter.Assets) (overlay.Fetcher, error) {
	for _, loc := range []string{assets.Halo, assets.Horns, assets.Tears, assets.Sweat, assets.SurpriseLines, assets.SurprisedEye} {
		if strings.HasPrefix(loc, overlay.DBPrefix) {
			return openDB(ctx)
		}
	}
	return nil, nil
}

// resolveAssets fills unset asset locations with the default file names under dir.
func resolveAssets(dir string, a filter.Assets) filter.Assets {
	def := func(loc *string, name string) {
		if *loc == "" {
			*loc = filepath.Join(dir, name)
		}
	}
	def(&a.Halo, "halo.png")
	def(&a.Horns, "horns.png")
	def(&a.Tears, "tears.png")
	def(&a.Sweat, "sweat.png")
	def(&a.SurpriseLines, "surprise_lines.png")
	def(&a.SurprisedEye, "surprised_eye.png")
	return a
}

// bindAssetFlags registers the asset location flags shared by apply and batch.
func bindAssetFlags(cmd *cobra.Command, opts *Options) {
	defaultDir := "assets"
	if dir := os.Getenv("FACEFX_ASSET_DIR"); dir != "" {
		defaultDir = dir
	}
	cmd.Flags().StringVar(&opts.AssetDir, "asset-dir", defaultDir, "Directory holding the default overlay images")
	cmd.Flags().StringVar(&opts.Assets.Halo, "halo", "", "Halo overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.Assets.Horns, "horns", "", "Horns overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.Assets.Tears, "tears", "", "Tears overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.Assets.Sweat, "sweat", "", "Cold sweat overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.Assets.SurpriseLines, "surprise-lines", "", "Surprise lines overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.Assets.SurprisedEye, "surprised-eye", "", "Surprised eye overlay (path or db:<name>)")
	cmd.Flags().StringVar(&opts.ForceFilter, "filter", "", "Apply this filter to every face instead of following the emotion label")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on the first face that cannot be drawn instead of skipping it")
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for the asset library (default: postgres://localhost:5432/facefx)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
