package intent

import (
	"strings"

	"github.com/KaramelBytes/visloom/internal/vis"
)

// longest operators first so "<=" beats "<" at the same position
var opsBySize = []string{"!=", "<=", ">=", "=", "<", ">"}

// Parse normalizes intent terms into clauses. A *vis.Vis contributes its
// bound clauses, or its intent when it has not been compiled yet.
func Parse(terms ...vis.Term) ([]vis.Clause, error) {
	var out []vis.Clause
	for _, t := range terms {
		switch x := t.(type) {
		case vis.Shorthand:
			c, err := ParseShorthand(string(x))
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		case vis.Clause:
			out = append(out, x.Copy())
		case *vis.Vis:
			if x == nil {
				return nil, invalid("<nil>", ErrMalformedClause, "nil vis")
			}
			if x.Mark != "" {
				out = append(out, vis.CopyClauses(x.Clauses)...)
			} else {
				out = append(out, vis.CopyClauses(x.Intent)...)
			}
		default:
			return nil, invalid("?", ErrUnsupportedIntent, "term of type %T", t)
		}
	}
	return out, nil
}

// ParseShorthand reads "attr", "a|b", "attr<op>value", "attr=v1|v2" or "?".
// Filter values stay text until validation coerces them to the column type.
func ParseShorthand(s string) (vis.Clause, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return vis.Clause{}, invalid(s, ErrMalformedClause, "empty clause")
	}
	if op, i := leftmostOp(raw); i >= 0 {
		attr := strings.TrimSpace(raw[:i])
		val := strings.TrimSpace(raw[i+len(op):])
		if attr == "" || val == "" {
			return vis.Clause{}, invalid(s, ErrMalformedClause, "filter needs an attribute and a value")
		}
		c := vis.Clause{Attribute: attr, FilterOp: op}
		if strings.Contains(val, "|") {
			if op != "=" {
				return vis.Clause{}, invalid(s, ErrMalformedClause, "value alternatives only work with =")
			}
			for _, v := range strings.Split(val, "|") {
				if v = strings.TrimSpace(v); v != "" {
					c.Values = append(c.Values, v)
				}
			}
			return c, nil
		}
		c.Value = val
		return c, nil
	}
	if strings.ContainsAny(raw, "!<>") {
		return vis.Clause{}, invalid(s, ErrMalformedClause, "unknown operator")
	}
	if strings.Contains(raw, "|") {
		var c vis.Clause
		for _, a := range strings.Split(raw, "|") {
			if a = strings.TrimSpace(a); a != "" {
				c.Attributes = append(c.Attributes, a)
			}
		}
		if len(c.Attributes) == 0 {
			return vis.Clause{}, invalid(s, ErrMalformedClause, "empty attribute list")
		}
		return c, nil
	}
	return vis.Clause{Attribute: raw}, nil
}

// leftmostOp finds the first operator in s; at equal positions the longer
// operator wins. It returns -1 when s has none.
func leftmostOp(s string) (string, int) {
	best, at := "", -1
	for _, op := range opsBySize {
		if i := strings.Index(s, op); i >= 0 && (at < 0 || i < at) {
			best, at = op, i
		}
	}
	return best, at
}
