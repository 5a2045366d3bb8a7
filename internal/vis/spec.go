package vis

import (
	"errors"
	"fmt"
)

// ErrPlotConfig wraps a panic raised by a plot config hook.
var ErrPlotConfig = errors.New("plot config failed")

// Encoding binds one attribute to a channel.
type Encoding struct {
	Attribute   string `json:"attribute"`
	Type        string `json:"type,omitempty"`
	Aggregation string `json:"aggregation,omitempty"`
	BinSize     int    `json:"binSize,omitempty"`
	Sort        string `json:"sort,omitempty"`
}

// FilterSpec is the row restriction of a rendered Vis.
type FilterSpec struct {
	Attribute string `json:"attribute"`
	Operator  string `json:"operator"`
	Value     any    `json:"value"`
}

// Spec is the renderer-facing form of a Vis.
type Spec struct {
	Mark      string              `json:"mark"`
	Encodings map[string]Encoding `json:"encodings"`
	Filter    *FilterSpec         `json:"filter,omitempty"`
	Title     string              `json:"title,omitempty"`
	Score     float64             `json:"score"`
	Config    map[string]any      `json:"config,omitempty"`
	Values    []map[string]any    `json:"values,omitempty"`
}

// RecommendationSpec is the renderer-facing form of one action's output.
type RecommendationSpec struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Specs       []Spec `json:"specs"`
}

func (v *Vis) baseSpec() Spec {
	s := Spec{
		Mark:      string(v.Mark),
		Encodings: map[string]Encoding{},
		Title:     v.Title,
		Score:     v.Score,
	}
	for _, c := range v.Clauses {
		if c.IsFilter() {
			if s.Filter == nil {
				s.Filter = &FilterSpec{Attribute: c.Attribute, Operator: c.FilterOp, Value: c.Value}
			}
			continue
		}
		if c.Channel == NoChannel {
			continue
		}
		e := Encoding{Attribute: c.Attribute, Type: string(c.DataType), BinSize: c.BinSize, Sort: c.Sort}
		if c.Aggregation.Aggregated() {
			e.Aggregation = string(c.Aggregation)
		}
		s.Encodings[string(c.Channel)] = e
	}
	if v.Data != nil {
		s.Values = v.Data.Rows()
	}
	return s
}

// Spec renders the Vis. A panicking plot config is reported as ErrPlotConfig
// and the unconfigured spec is returned.
func (v *Vis) Spec() (s Spec, err error) {
	s = v.baseSpec()
	if v.plotConfig == nil {
		return s, nil
	}
	base := s
	defer func() {
		if r := recover(); r != nil {
			s = base
			err = fmt.Errorf("%w: %v", ErrPlotConfig, r)
		}
	}()
	return v.plotConfig(v.baseSpec()), nil
}
