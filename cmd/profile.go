package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var profOutputPath string

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a table: semantic types, roles and statistics",
	Long: `Load a CSV/TSV/XLSX file (or a SQL table via --sql-table) and print the derived
metadata: per-column semantic type, role, cardinality and numeric summaries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := openDataset(ctx, cmd, args)
		if err != nil {
			return err
		}
		p, err := d.Metadata(ctx)
		if err != nil {
			return err
		}
		md := p.Markdown(d.Name())

		// Decide where to write: --output path or stdout
		if profOutputPath != "" {
			if err := os.WriteFile(profOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	addSourceFlags(profileCmd)
}
