package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/visloom/internal/action"
	"github.com/KaramelBytes/visloom/internal/dataset"
	"github.com/KaramelBytes/visloom/internal/utils"
	"github.com/KaramelBytes/visloom/internal/vis"
)

var (
	recJSON bool
	recHead int
	recTail int
)

// recommendReport is the --json form of a recommendation run.
type recommendReport struct {
	Source          string                   `json:"source"`
	Current         []vis.Spec               `json:"current,omitempty"`
	Recommendations []vis.RecommendationSpec `json:"recommendations"`
	Messages        []string                 `json:"messages,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [file]",
	Short: "Rank candidate visualizations for a table",
	Long: `Profile the table, compile the optional intent into the current visualization and
run the recommendation actions applicable to it. Each action prints its ranked collection.

Intent clauses use shorthand: 'Horsepower' (attribute), 'Origin=USA' (filter),
'Origin|Brand' (alternatives), '?' (any attribute), 'Origin=?' (one vis per value).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if recHead > 0 && recTail > 0 {
			return errors.New("use either --head or --tail, not both")
		}
		ctx := cmd.Context()
		d, err := prepareDataset(ctx, cmd, args)
		if err != nil {
			return err
		}
		res, err := d.Recommendations(ctx)
		if err != nil {
			return err
		}
		current, err := d.CurrentVis(ctx)
		if err != nil {
			return err
		}
		if recJSON {
			return writeReport(cmd.OutOrStdout(), d.Name(), current, res)
		}
		printRecommendations(cmd.OutOrStdout(), current, res)
		return nil
	},
}

// prepareDataset opens the source, applies --head/--tail and the intent.
func prepareDataset(ctx context.Context, cmd *cobra.Command, args []string) (*dataset.Dataset, error) {
	d, err := openDataset(ctx, cmd, args)
	if err != nil {
		return nil, err
	}
	terms, err := intentTerms()
	if err != nil {
		return nil, err
	}
	if len(terms) > 0 {
		if err := d.SetIntent(ctx, terms...); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("head"); f != nil && f.Changed {
		d = d.Head(recHead)
	}
	if f := cmd.Flags().Lookup("tail"); f != nil && f.Changed {
		d = d.Tail(recTail)
	}
	return d, nil
}

func printRecommendations(w io.Writer, current *vis.Collection, res *action.Result) {
	for _, m := range res.Messages {
		fmt.Fprintf(w, "⚠ %s\n", m)
	}
	if len(res.Messages) > 0 {
		fmt.Fprintln(w)
	}
	if current.Len() > 0 {
		fmt.Fprintf(w, "== %s ==\n%s\n\n", "Current Vis", current.String())
	}
	if len(res.Recommendations) == 0 {
		fmt.Fprintln(w, "No recommendations.")
		return
	}
	for _, rec := range res.Recommendations {
		fmt.Fprintf(w, "== %s (%d) ==\n", rec.Action, rec.Collection.Len())
		if rec.Description != "" {
			fmt.Fprintln(w, rec.Description)
		}
		fmt.Fprintf(w, "%s\n\n", rec.Collection.String())
	}
}

func writeReport(w io.Writer, source string, current *vis.Collection, res *action.Result) error {
	rep := recommendReport{Source: source, Messages: res.Messages, Recommendations: []vis.RecommendationSpec{}}
	specs, err := current.Specs()
	if err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("current vis: %v", err))
	}
	rep.Current = specs
	for _, rec := range res.Recommendations {
		spec, err := rec.Spec()
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", rec.Action, err))
		}
		rep.Recommendations = append(rep.Recommendations, spec)
	}
	b, err := utils.PrettyJSON(rep)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "print renderer specs as JSON")
	recommendCmd.Flags().IntVar(&recHead, "head", 0, "recommend on the first n rows (shows the full table once)")
	recommendCmd.Flags().IntVar(&recTail, "tail", 0, "recommend on the last n rows (shows the full table once)")
	addSourceFlags(recommendCmd)
	addIntentFlags(recommendCmd)
}
