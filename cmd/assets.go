package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/facefx/internal/store"
	"github.com/andresmejia3/facefx/internal/utils"
	"github.com/spf13/cobra"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage the overlay images stored in PostgreSQL",
	Long:  "Stored assets can be used in place of a file path with the db:<name> form, e.g. --halo db:halo.",
}

var assetsAddCmd = &cobra.Command{
	Use:   "add <name> <file>",
	Short: "Store an overlay image (must have an alpha channel)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		data, err := os.ReadFile(args[1])
		if err != nil {
			utils.ShowError("Failed to read asset file", err)
			return err
		}
		db, err := openDB(cmd.Context())
		if err != nil {
			utils.ShowError("Database unavailable", err)
			return err
		}
		if err := db.PutAsset(cmd.Context(), args[0], data); err != nil {
			utils.ShowError("Failed to store asset", err)
			return err
		}
		fmt.Printf("✅ Stored %q (use it as db:%s)\n", args[0], args[0])
		return nil
	},
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored overlay images",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		db, err := openDB(cmd.Context())
		if err != nil {
			utils.ShowError("Database unavailable", err)
			return err
		}
		assets, err := db.ListAssets(cmd.Context())
		if err != nil {
			utils.ShowError("Failed to list assets", err)
			return err
		}

		if len(assets) == 0 {
			fmt.Println("No assets found in database.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tBYTES\tCREATED")
		fmt.Fprintln(w, "----\t----\t-----\t-------")
		for _, a := range assets {
			fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\n", a.Name, a.Width, a.Height, a.Size, a.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var assetsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stored overlay image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		db, err := openDB(cmd.Context())
		if err != nil {
			utils.ShowError("Database unavailable", err)
			return err
		}
		if err := db.DeleteAsset(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("No asset named %q.\n", args[0])
			} else {
				utils.ShowError("Failed to delete asset", err)
			}
			return err
		}
		fmt.Printf("🗑️  Deleted %q\n", args[0])
		return nil
	},
}

func init() {
	assetsCmd.AddCommand(assetsAddCmd, assetsListCmd, assetsRmCmd)
	rootCmd.AddCommand(assetsCmd)
}
