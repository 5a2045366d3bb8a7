package vis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/visloom/internal/frame"
)

// Collection is an ordered set of Vis produced in one generation context.
type Collection struct {
	items []*Vis
}

// NewCollection wraps items without copying them.
func NewCollection(items ...*Vis) *Collection {
	return &Collection{items: items}
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the i-th Vis.
func (c *Collection) At(i int) *Vis { return c.items[i] }

// Items returns the members in order.
func (c *Collection) Items() []*Vis {
	if c == nil {
		return nil
	}
	return append([]*Vis(nil), c.items...)
}

func (c *Collection) Append(v ...*Vis) { c.items = append(c.items, v...) }

// Scores returns the member scores in order.
func (c *Collection) Scores() []float64 {
	out := make([]float64, c.Len())
	for i, v := range c.Items() {
		out[i] = v.Score
	}
	return out
}

// Sort orders members by score, stable among ties. removeInvalid drops
// members scored InvalidScore first.
func (c *Collection) Sort(removeInvalid, descending bool) {
	if removeInvalid {
		kept := make([]*Vis, 0, len(c.items))
		for _, v := range c.items {
			if v.Score != InvalidScore {
				kept = append(kept, v)
			}
		}
		c.items = kept
	}
	sort.SliceStable(c.items, func(i, j int) bool {
		if descending {
			return c.items[i].Score > c.items[j].Score
		}
		return c.items[i].Score < c.items[j].Score
	})
}

// TopK returns a new collection with the k highest valid scores.
func (c *Collection) TopK(k int) *Collection { return c.prefix(k, true) }

// BottomK returns a new collection with the k lowest valid scores.
func (c *Collection) BottomK(k int) *Collection { return c.prefix(k, false) }

func (c *Collection) prefix(k int, descending bool) *Collection {
	out := NewCollection(c.Items()...)
	out.Sort(true, descending)
	if k < 0 {
		k = 0
	}
	if k < len(out.items) {
		out.items = out.items[:k]
	}
	return out
}

// NormalizeScore divides scores by the collection maximum, leaving invalid
// members alone. With invert, each normalized s becomes 1-s.
// A collection whose maximum is not positive is left unchanged.
func (c *Collection) NormalizeScore(invert bool) {
	maxScore, found := 0.0, false
	for _, v := range c.items {
		if v.Score == InvalidScore {
			continue
		}
		if !found || v.Score > maxScore {
			maxScore, found = v.Score, true
		}
	}
	if !found || maxScore <= 0 {
		return
	}
	for _, v := range c.items {
		if v.Score == InvalidScore {
			continue
		}
		v.Score /= maxScore
		if invert {
			v.Score = 1 - v.Score
		}
	}
}

// RemoveDuplicates keeps the first member of every structurally equal group.
func (c *Collection) RemoveDuplicates() {
	seen := make(map[string]bool, len(c.items))
	kept := make([]*Vis, 0, len(c.items))
	for _, v := range c.items {
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, v)
	}
	c.items = kept
}

// SetPlotConfig installs fn on every member.
func (c *Collection) SetPlotConfig(fn PlotConfig) {
	for _, v := range c.items {
		v.SetPlotConfig(fn)
	}
}

func (c *Collection) ClearPlotConfig() { c.SetPlotConfig(nil) }

// Specs renders every member. Plot config failures are joined into err
// while the unconfigured spec is still returned for that member.
func (c *Collection) Specs() ([]Spec, error) {
	out := make([]Spec, 0, c.Len())
	var errs []error
	for i, v := range c.Items() {
		s, err := v.Spec()
		if err != nil {
			errs = append(errs, fmt.Errorf("vis %d: %w", i, err))
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

// String renders an aligned one-line summary per member.
func (c *Collection) String() string {
	if c.Len() == 0 {
		return "[]"
	}
	var widestX, widestY, widestMark, widestFilter int
	for _, v := range c.items {
		for _, cl := range v.Clauses {
			if cl.IsFilter() {
				widestFilter = max(widestFilter, len(cl.Attribute)+len(frame.Format(cl.Value)))
				continue
			}
			switch cl.Channel {
			case X:
				widestX = max(widestX, len(cl.Label()))
			case Y:
				widestY = max(widestY, len(cl.Label()))
			}
		}
		widestMark = max(widestMark, len(v.Mark))
	}

	lines := make([]string, 0, len(c.items))
	for _, v := range c.items {
		var x, y string
		var filter *Clause
		var extra []string
		for i, cl := range v.Clauses {
			if cl.IsFilter() {
				filter = &v.Clauses[i]
				continue
			}
			label := cl.Label()
			if v.Mark == Scatter && cl.Aggregation.Aggregated() {
				label = cl.Attribute
			}
			switch cl.Channel {
			case X:
				x = pad(label, widestX)
			case Y:
				y = label
			case NoChannel:
			default:
				extra = append(extra, ", "+string(cl.Channel)+": "+label)
			}
		}
		switch {
		case filter != nil:
			y = pad(y, widestY)
		case widestFilter != 0:
			y = pad(y, widestY+widestFilter+9)
		default:
			y = pad(y, widestY)
		}
		if x != "" {
			x = "x: " + x + ", "
		}
		if y != "" {
			y = "y: " + y
		}
		mark := pad(string(v.Mark), widestMark)
		if filter != nil {
			f := pad(" -- ["+filter.FilterString()+"]", widestFilter+8)
			lines = append(lines, fmt.Sprintf("<Vis  (%s%s%s %s) mark: %s, score: %.2f >", x, y, strings.Join(extra, ""), f, mark, v.Score))
			continue
		}
		lines = append(lines, fmt.Sprintf("<Vis  (%s%s%s) mark: %s, score: %.2f >", x, y, strings.Join(extra, ""), mark, v.Score))
	}
	return "[" + strings.Join(lines, ",\n ") + "]"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
