package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/vis"
)

type clauseDoc struct {
	Attribute   string   `yaml:"attribute"`
	Attributes  []string `yaml:"attributes"`
	Channel     string   `yaml:"channel"`
	DataType    string   `yaml:"data_type"`
	DataModel   string   `yaml:"data_model"`
	Aggregation string   `yaml:"aggregation"`
	BinSize     int      `yaml:"bin_size"`
	Sort        string   `yaml:"sort"`
	FilterOp    string   `yaml:"filter_op"`
	Value       any      `yaml:"value"`
	Values      []any    `yaml:"values"`
	Exclude     []string `yaml:"exclude"`
}

type intentDoc struct {
	Intent []yaml.Node `yaml:"intent"`
}

// LoadFile reads intent terms from YAML. The document is either a list or
// a mapping with an "intent" list; entries are shorthand strings or clause
// mappings.
func LoadFile(path string) ([]vis.Term, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent file: %w", err)
	}
	return Decode(b)
}

// Decode parses the YAML intent format used by LoadFile.
func Decode(b []byte) ([]vis.Term, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("parse intent yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	var items []yaml.Node
	switch doc.Kind {
	case yaml.SequenceNode:
		for _, n := range doc.Content {
			items = append(items, *n)
		}
	case yaml.MappingNode:
		var d intentDoc
		if err := doc.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode intent: %w", err)
		}
		items = d.Intent
	default:
		return nil, fmt.Errorf("intent yaml line %d: %w", doc.Line, ErrMalformedClause)
	}
	terms := make([]vis.Term, 0, len(items))
	for _, n := range items {
		switch n.Kind {
		case yaml.ScalarNode:
			terms = append(terms, vis.Shorthand(n.Value))
		case yaml.MappingNode:
			var cd clauseDoc
			if err := n.Decode(&cd); err != nil {
				return nil, fmt.Errorf("intent yaml line %d: %w", n.Line, err)
			}
			terms = append(terms, cd.clause())
		default:
			return nil, fmt.Errorf("intent yaml line %d: %w", n.Line, ErrMalformedClause)
		}
	}
	return terms, nil
}

func (d clauseDoc) clause() vis.Clause {
	return vis.Clause{
		Attribute:   d.Attribute,
		Attributes:  d.Attributes,
		Channel:     vis.Channel(d.Channel),
		DataType:    analysis.SemanticType(d.DataType),
		DataModel:   analysis.Role(d.DataModel),
		Aggregation: vis.Aggregation(d.Aggregation),
		BinSize:     d.BinSize,
		Sort:        d.Sort,
		FilterOp:    d.FilterOp,
		Value:       d.Value,
		Values:      d.Values,
		Exclude:     d.Exclude,
	}
}
