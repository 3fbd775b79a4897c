package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

// Condition is an attribute predicate applied to nodes or edges during an
// advanced query. A failing condition excludes the element from the result
// set without stopping traversal through it.
type Condition struct {
	Attribute string `json:"attribute"`
	Operator  string `json:"operator"`
	Value     any    `json:"value"`

	re *regexp.Regexp
}

// Supported condition operators.
const (
	OpEquals     = "equals"
	OpContains   = "contains"
	OpStartsWith = "starts_with"
	OpRegex      = "regex"
	OpInArray    = "in_array"
)

// compileConditions validates operators up front so a malformed query fails
// fast instead of failing silently element by element.
func compileConditions(conds []Condition) ([]Condition, error) {
	out := make([]Condition, len(conds))
	for i, c := range conds {
		if c.Attribute == "" {
			return nil, fmt.Errorf("condition %d: attribute is required", i)
		}
		switch c.Operator {
		case OpEquals, OpContains, OpStartsWith, OpInArray:
		case OpRegex:
			pattern, ok := c.Value.(string)
			if !ok {
				return nil, fmt.Errorf("condition %d: regex value must be a string", i)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("condition %d: invalid regex: %v", i, err)
			}
			c.re = re
		default:
			return nil, fmt.Errorf("condition %d: unknown operator %q", i, c.Operator)
		}
		out[i] = c
	}
	return out, nil
}

// evalConditions reports whether attrs satisfies every condition.
func evalConditions(attrs graph.Attrs, conds []Condition) bool {
	for _, c := range conds {
		if !c.eval(attrs) {
			return false
		}
	}
	return true
}

func (c Condition) eval(attrs graph.Attrs) bool {
	value, ok := attrs[c.Attribute]
	if !ok {
		return false
	}
	switch c.Operator {
	case OpEquals:
		return graph.ValueEqual(value, c.Value)
	case OpContains:
		want := graph.Stringify(c.Value)
		return want != "" && strings.Contains(graph.Stringify(value), want)
	case OpStartsWith:
		want := graph.Stringify(c.Value)
		return want != "" && strings.HasPrefix(graph.Stringify(value), want)
	case OpRegex:
		return c.re != nil && c.re.MatchString(graph.Stringify(value))
	case OpInArray:
		arr, ok := value.([]any)
		if !ok {
			return false
		}
		for _, elem := range arr {
			if graph.ValueEqual(elem, c.Value) {
				return true
			}
		}
		return false
	}
	return false
}
