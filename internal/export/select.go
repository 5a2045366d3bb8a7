// Package export maps selected recommendation indices back into
// collections and writes them out for a renderer.
package export

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/visloom/internal/action"
	"github.com/KaramelBytes/visloom/internal/vis"
)

const (
	// CurrentVisKey selects the intent's own visualizations.
	CurrentVisKey = "currentVis"
	// CurrentVisLabel names the current visualizations in multi-tab results.
	CurrentVisLabel = "Current Vis"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrIndexOutOfRange = errors.New("selection index out of range")
)

const nothingSelected = "no visualization selected to export"

// Selection maps a recommendation tab (or CurrentVisKey) to chosen indices.
type Selection map[string][]int

// Result is either one collection or a set of named collections.
type Result struct {
	// Action names the single selected tab.
	Action     string
	Collection *vis.Collection
	Tabs       map[string]*vis.Collection
	Warning    string
}

// Len counts the exported visualizations.
func (r *Result) Len() int {
	n := r.Collection.Len()
	for _, c := range r.Tabs {
		n += c.Len()
	}
	return n
}

// Select resolves sel against the current visualizations and a dispatch
// result. An empty selection is not an error; it yields an empty
// collection and a warning.
func Select(sel Selection, current *vis.Collection, recs *action.Result) (*Result, error) {
	switch len(sel) {
	case 0:
		return &Result{Collection: vis.NewCollection(), Warning: nothingSelected}, nil
	case 1:
		for tab, idxs := range sel {
			if tab == CurrentVisKey {
				return &Result{Action: CurrentVisLabel, Collection: orEmpty(current)}, nil
			}
			col, err := gather(recs, tab, idxs)
			if err != nil {
				return nil, err
			}
			return &Result{Action: tab, Collection: col}, nil
		}
	}
	tabs := make([]string, 0, len(sel))
	for tab := range sel {
		tabs = append(tabs, tab)
	}
	sort.Strings(tabs)
	res := &Result{Tabs: make(map[string]*vis.Collection, len(sel))}
	for _, tab := range tabs {
		if tab == CurrentVisKey {
			res.Tabs[CurrentVisLabel] = orEmpty(current)
			continue
		}
		col, err := gather(recs, tab, sel[tab])
		if err != nil {
			return nil, err
		}
		res.Tabs[tab] = col
	}
	return res, nil
}

func gather(recs *action.Result, tab string, idxs []int) (*vis.Collection, error) {
	if recs == nil {
		return nil, fmt.Errorf("%q: %w", tab, ErrUnknownAction)
	}
	rec, ok := recs.Lookup(tab)
	if !ok {
		return nil, fmt.Errorf("%q: %w", tab, ErrUnknownAction)
	}
	out := vis.NewCollection()
	for _, i := range idxs {
		if i < 0 || i >= rec.Collection.Len() {
			return nil, fmt.Errorf("%s[%d] of %d: %w", tab, i, rec.Collection.Len(), ErrIndexOutOfRange)
		}
		out.Append(rec.Collection.At(i))
	}
	return out, nil
}

func orEmpty(c *vis.Collection) *vis.Collection {
	if c == nil {
		return vis.NewCollection()
	}
	return c
}
