package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/internal/errors"
)

// Action is the kind of a scenario step.
type Action string

const (
	ActionSet    Action = "set"
	ActionDelete Action = "delete"
	ActionAdd    Action = "add"
	ActionPush   Action = "push"
	ActionPop    Action = "pop"
	ActionLength Action = "length"
	ActionRead   Action = "read"
	ActionTick   Action = "tick"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	// Name labels the scenario in reports.
	Name string

	// State is the initial state document. Mappings become records,
	// sequences become lists; the !map and !set tags select maps and sets.
	State *yaml.Node

	Effects  []EffectSpec
	Computed []ComputedSpec
	Watches  []WatchSpec
	Steps    []Step

	// File is the source file, used for error locations.
	File string
}

// EffectSpec declares an effect that reads one or more paths.
type EffectSpec struct {
	Name  string `yaml:"name"`
	Reads Paths  `yaml:"reads"`
	// Batched effects re-run through the job queue at the next tick.
	Batched bool `yaml:"batched"`
}

// ComputedSpec declares a computed sum over paths. A path holding a
// container sums every number inside it.
type ComputedSpec struct {
	Name string `yaml:"name"`
	Sum  Paths  `yaml:"sum"`
}

// WatchSpec declares a watcher on a path or computed name.
type WatchSpec struct {
	Name      string `yaml:"name"`
	Source    string `yaml:"source"`
	Flush     string `yaml:"flush"`
	Immediate bool   `yaml:"immediate"`
	// Deep fires on any nested change of a container source.
	Deep bool `yaml:"deep"`
}

// Step is one scripted action.
type Step struct {
	Action Action
	// Path is the target path, or a computed name for read.
	Path string
	// Value is the written value for set, add, push and length.
	Value *yaml.Node

	Line   int
	Column int
}

// Paths accepts a single path or a list of paths.
type Paths []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Paths) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*p = Paths{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*p = list
	return nil
}

type document struct {
	Name     string      `yaml:"name"`
	State    yaml.Node   `yaml:"state"`
	Effects  []yaml.Node `yaml:"effects"`
	Computed []yaml.Node `yaml:"computed"`
	Watches  []yaml.Node `yaml:"watches"`
	Steps    []yaml.Node `yaml:"steps"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S001").
			WithDetailf("Could not read %s.", path).
			Wrap(err)
	}
	return Parse(path, data)
}

// Parse parses scenario data. file is used for error locations only.
func Parse(file string, data []byte) (*Scenario, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("S001").WithDetail("The scenario file is empty.")
		}
		return nil, parseError(file, err)
	}

	s := &Scenario{Name: doc.Name, File: file}
	if doc.State.Kind != 0 {
		if doc.State.Kind != yaml.MappingNode {
			return nil, nodeError("S001", file, &doc.State).
				WithDetail("state must be a mapping.")
		}
		s.State = &doc.State
	}

	seen := make(map[string]bool)
	named := func(kind, name string, node *yaml.Node) error {
		if name == "" {
			return nodeError("S001", file, node).WithDetailf("Every %s needs a name.", kind)
		}
		if seen[name] {
			return nodeError("S001", file, node).WithDetailf("Duplicate name %q.", name)
		}
		seen[name] = true
		return nil
	}

	for i := range doc.Effects {
		node := &doc.Effects[i]
		var spec EffectSpec
		if err := decodeStrict(node, &spec, "name", "reads", "batched"); err != nil {
			return nil, nodeError("S001", file, node).Wrap(err)
		}
		if err := named("effect", spec.Name, node); err != nil {
			return nil, err
		}
		if len(spec.Reads) == 0 {
			return nil, nodeError("S001", file, node).
				WithDetailf("Effect %q reads nothing.", spec.Name).
				WithSuggestion("Add reads: [path]")
		}
		s.Effects = append(s.Effects, spec)
	}

	for i := range doc.Computed {
		node := &doc.Computed[i]
		var spec ComputedSpec
		if err := decodeStrict(node, &spec, "name", "sum"); err != nil {
			return nil, nodeError("S001", file, node).Wrap(err)
		}
		if err := named("computed", spec.Name, node); err != nil {
			return nil, err
		}
		if len(spec.Sum) == 0 {
			return nil, nodeError("S001", file, node).
				WithDetailf("Computed %q has no sum paths.", spec.Name)
		}
		s.Computed = append(s.Computed, spec)
	}

	for i := range doc.Watches {
		node := &doc.Watches[i]
		var spec WatchSpec
		if err := decodeStrict(node, &spec, "name", "source", "flush", "immediate", "deep"); err != nil {
			return nil, nodeError("S001", file, node).Wrap(err)
		}
		if err := named("watch", spec.Name, node); err != nil {
			return nil, err
		}
		if spec.Source == "" {
			return nil, nodeError("S001", file, node).
				WithDetailf("Watch %q has no source.", spec.Name)
		}
		s.Watches = append(s.Watches, spec)
	}

	for i := range doc.Steps {
		step, err := parseStep(file, &doc.Steps[i])
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

func parseStep(file string, node *yaml.Node) (Step, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return Step{}, nodeError("S003", file, node)
	}
	key, val := node.Content[0], node.Content[1]
	step := Step{Action: Action(key.Value), Line: node.Line, Column: node.Column}

	switch step.Action {
	case ActionDelete, ActionPop, ActionRead:
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return Step{}, nodeError("S003", file, val).
				WithDetailf("%s takes a path, e.g. %s: user.name", step.Action, step.Action)
		}
		step.Path = val.Value

	case ActionSet, ActionAdd, ActionPush, ActionLength:
		var body struct {
			Path  string    `yaml:"path"`
			Value yaml.Node `yaml:"value"`
		}
		if err := decodeStrict(val, &body, "path", "value"); err != nil || body.Path == "" || body.Value.Kind == 0 {
			e := nodeError("S003", file, val).
				WithDetailf("%s takes a mapping with path and value.", step.Action)
			if err != nil {
				e = e.Wrap(err)
			}
			return Step{}, e
		}
		if step.Action == ActionLength {
			if _, err := strconv.Atoi(body.Value.Value); err != nil || body.Value.Kind != yaml.ScalarNode {
				return Step{}, nodeError("S003", file, &body.Value).
					WithDetailf("length value %q is not an integer.", body.Value.Value)
			}
		}
		step.Path = body.Path
		step.Value = &body.Value

	case ActionTick:

	default:
		return Step{}, nodeError("S003", file, key).
			WithDetailf("Unknown action %q.", key.Value).
			WithSuggestion("Use one of set, delete, add, push, pop, length, read, tick")
	}
	return step, nil
}

// decodeStrict decodes a mapping node into v, rejecting keys not in fields.
// Node.Decode has no KnownFields switch.
func decodeStrict(node *yaml.Node, v any, fields ...string) error {
	if node.Kind != yaml.MappingNode {
		return stderrors.New("expected a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !slices.Contains(fields, key) {
			return fmt.Errorf("line %d: unknown field %q", node.Content[i].Line, key)
		}
	}
	return node.Decode(v)
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func parseError(file string, err error) *errors.ReactorError {
	e := errors.New("S001").Wrap(err)
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		e = e.WithLocation(file, line, 0)
	}
	return e
}

func nodeError(code, file string, node *yaml.Node) *errors.ReactorError {
	return errors.New(code).WithLocation(file, node.Line, node.Column)
}
