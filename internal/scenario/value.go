package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/pkg/reactive"
)

const (
	tagMap = "!map"
	tagSet = "!set"
)

// buildValue converts a YAML node into a raw engine value. Mappings become
// records (field order kept) unless tagged !map; sequences become lists
// unless tagged !set. Map keys are always strings.
func buildValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return buildValue(node.Alias)

	case yaml.MappingNode:
		if node.Tag == tagMap {
			m := reactive.NewMap()
			for i := 0; i < len(node.Content); i += 2 {
				v, err := buildValue(node.Content[i+1])
				if err != nil {
					return nil, err
				}
				m.Set(node.Content[i].Value, v)
			}
			return m, nil
		}
		r := reactive.NewRecord()
		for i := 0; i < len(node.Content); i += 2 {
			v, err := buildValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			r.Set(node.Content[i].Value, v)
		}
		return r, nil

	case yaml.SequenceNode:
		vals := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := buildValue(item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		if node.Tag == tagSet {
			return reactive.NewSet(vals...), nil
		}
		return reactive.NewList(vals...), nil

	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", node.Line)
}

// snapshot converts v into plain Go values for reports. Called inside an
// effect it reads through the wrappers, so the effect depends on every value
// it reports.
func snapshot(v any) any {
	switch w := v.(type) {
	case *reactive.ReactiveRecord:
		out := make(map[string]any, w.Len())
		for _, k := range w.Keys() {
			out[k] = snapshot(w.Get(k))
		}
		return out
	case *reactive.ReactiveList:
		out := make([]any, 0, w.Len())
		for _, item := range w.Values() {
			out = append(out, snapshot(item))
		}
		return out
	case *reactive.ReactiveMap:
		out := make(map[string]any, w.Size())
		for k, item := range w.Entries() {
			out[fmt.Sprint(k)] = snapshot(item)
		}
		return out
	case *reactive.ReactiveSet:
		out := make([]any, 0, w.Size())
		for _, item := range w.Values() {
			out = append(out, snapshot(item))
		}
		return out
	}
	return v
}

// number sums every numeric value in a snapshot.
func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	case []any:
		var total float64
		for _, item := range n {
			total += number(item)
		}
		return total
	case map[string]any:
		var total float64
		for _, item := range n {
			total += number(item)
		}
		return total
	}
	return 0
}
