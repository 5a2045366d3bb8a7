package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/export"
	"github.com/KaramelBytes/visloom/internal/utils"
)

var (
	expSelect     []string
	expOutputPath string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write selected visualizations to a JSON bundle",
	Long: `Run the recommendations and export the selected visualizations as renderer specs.

Select with --select <Action>=<i,j,...> (repeatable). A bare action name selects every
member; 'currentVis' selects the visualizations compiled from the intent.`,
	Example: `  visloom export cars.csv --select Correlation=0,2 --select Occurrence=1
  visloom export cars.csv -i Horsepower --select currentVis -o hp.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sel, err := parseSelection(expSelect)
		if err != nil {
			return err
		}
		d, err := prepareDataset(ctx, cmd, args)
		if err != nil {
			return err
		}
		// Bare action names expand to every member.
		for tab, idxs := range sel {
			if idxs != nil || tab == export.CurrentVisKey {
				continue
			}
			res, err := d.Recommendations(ctx)
			if err != nil {
				return err
			}
			rec, ok := res.Lookup(tab)
			if !ok {
				return fmt.Errorf("%q: %w", tab, export.ErrUnknownAction)
			}
			all := make([]int, rec.Collection.Len())
			for i := range all {
				all[i] = i
			}
			sel[tab] = all
		}
		res, err := d.Exported(ctx, sel)
		if err != nil {
			return err
		}
		b := export.NewBundle(d.Name(), res)
		for _, w := range b.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		out, err := exportPath(d.Name())
		if err != nil {
			return err
		}
		if err := b.Write(out); err != nil {
			return err
		}
		logger.Debug("bundle written", zap.String("path", out), zap.Stringer("bundle_id", b.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d visualization(s) to %s\n", b.Count(), out)
		return nil
	},
}

// parseSelection turns "Tab=0,2" flags into a selection. A tab without
// indices maps to nil.
func parseSelection(flags []string) (export.Selection, error) {
	sel := export.Selection{}
	for _, f := range flags {
		tab, list, hasIdx := strings.Cut(f, "=")
		tab = strings.TrimSpace(tab)
		if tab == "" {
			return nil, fmt.Errorf("invalid --select %q: missing action name", f)
		}
		if !hasIdx {
			if _, dup := sel[tab]; !dup {
				sel[tab] = nil
			}
			continue
		}
		for _, part := range strings.Split(list, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid --select %q: %q is not an index", f, part)
			}
			sel[tab] = append(sel[tab], i)
		}
		if sel[tab] == nil {
			sel[tab] = []int{}
		}
	}
	return sel, nil
}

func exportPath(source string) (string, error) {
	if expOutputPath != "" {
		return expOutputPath, nil
	}
	name := utils.BaseName(source) + ".bundle.json"
	dir := loadedConfig().ExportDir
	if dir == "" {
		return name, nil
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringArrayVar(&expSelect, "select", nil, "visualizations to export: <Action>=<i,j,...> or currentVis (repeatable)")
	exportCmd.Flags().StringVarP(&expOutputPath, "output", "o", "", "bundle path (default <export_dir>/<source>.bundle.json)")
	addSourceFlags(exportCmd)
	addIntentFlags(exportCmd)
}
