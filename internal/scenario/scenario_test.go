package scenario

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func requireCode(t *testing.T, err error, code string) *errors.ReactorError {
	t.Helper()
	require.Error(t, err)
	var re *errors.ReactorError
	require.True(t, stderrors.As(err, &re), "expected *errors.ReactorError, got %T", err)
	assert.Equal(t, code, re.Code)
	return re
}

func TestLoad_Cart(t *testing.T) {
	s, err := Load("testdata/cart.yaml")
	require.NoError(t, err)

	assert.Equal(t, "cart", s.Name)
	assert.Equal(t, "testdata/cart.yaml", s.File)
	require.Len(t, s.Effects, 2)
	assert.Equal(t, Paths{"user.name"}, s.Effects[0].Reads, "a scalar read becomes one path")
	assert.True(t, s.Effects[1].Batched)
	require.Len(t, s.Computed, 2)
	assert.Equal(t, Paths{"total", "prices"}, s.Computed[1].Sum)
	require.Len(t, s.Watches, 2)
	assert.Equal(t, "post", s.Watches[0].Flush)
	assert.True(t, s.Watches[1].Deep)

	require.Len(t, s.Steps, 10)
	assert.Equal(t, ActionSet, s.Steps[0].Action)
	assert.Equal(t, "user.name", s.Steps[0].Path)
	assert.Equal(t, "grace", s.Steps[0].Value.Value)
	assert.Equal(t, ActionTick, s.Steps[5].Action)
	assert.Equal(t, ActionPop, s.Steps[9].Action)
	assert.Equal(t, "items", s.Steps[9].Path)
	assert.Greater(t, s.Steps[0].Line, 0)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		code   string
		line   int
		detail string
	}{
		{"empty", "", "S001", 0, "empty"},
		{"malformed", "name: x\nsteps: [\n", "S001", 0, ""},
		{"unknown top-level field", "name: x\nstates: {}\n", "S001", 2, ""},
		{"state not a mapping", "state: [1, 2]\n", "S001", 1, "mapping"},
		{"effect without name", "effects:\n  - reads: a\n", "S001", 2, "name"},
		{"effect without reads", "effects:\n  - name: e\n", "S001", 2, "reads nothing"},
		{"effect unknown field", "effects:\n  - name: e\n    reads: a\n    lazy: true\n", "S001", 2, ""},
		{"duplicate name", "computed:\n  - {name: x, sum: a}\nwatches:\n  - {name: x, source: a}\n", "S001", 4, "Duplicate"},
		{"watch without source", "watches:\n  - name: w\n", "S001", 2, "no source"},
		{"unknown action", "steps:\n  - jump: a\n", "S003", 2, "jump"},
		{"two actions", "steps:\n  - {read: a, pop: b}\n", "S003", 2, ""},
		{"set without value", "steps:\n  - set: {path: a}\n", "S003", 2, "path and value"},
		{"delete with mapping", "steps:\n  - delete: {path: a}\n", "S003", 2, "takes a path"},
		{"length not integer", "steps:\n  - length: {path: a, value: many}\n", "S003", 2, "not an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("inline.yaml", []byte(tt.input))
			re := requireCode(t, err, tt.code)
			if tt.line > 0 {
				require.NotNil(t, re.Location)
				assert.Equal(t, tt.line, re.Location.Line)
				assert.Equal(t, "inline.yaml", re.Location.File)
			}
			if tt.detail != "" {
				assert.Contains(t, re.Detail, tt.detail)
			}
		})
	}
}

func TestParse_MalformedYAMLHasLine(t *testing.T) {
	_, err := Parse("inline.yaml", []byte("name: x\nstate:\n  a: [1\n  b: 2\n"))
	re := requireCode(t, err, "S001")
	require.NotNil(t, re.Location)
	assert.Greater(t, re.Location.Line, 0)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	re := requireCode(t, err, "S001")
	assert.Contains(t, re.Detail, "nope.yaml")
}

func TestLoad_BadStepFile(t *testing.T) {
	_, err := Load("testdata/bad_step.yaml")
	re := requireCode(t, err, "S003")
	require.NotNil(t, re.Location)
	assert.Equal(t, 6, re.Location.Line)
	assert.NotEmpty(t, re.Context, "context lines are read from the file")
}

func TestBuildValue(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
rec: {b: 1, a: 2}
list: [1, two, 3.5]
m: !map {x: 1}
s: !set [a, a, 1]
none: null
`), &node))

	v, err := buildValue(node.Content[0])
	require.NoError(t, err)
	root, ok := v.(*reactive.Record)
	require.True(t, ok)
	assert.Equal(t, []string{"rec", "list", "m", "s", "none"}, root.Keys())

	rec, _ := root.Get("rec")
	assert.Equal(t, []string{"b", "a"}, rec.(*reactive.Record).Keys(), "field order is kept")

	list, _ := root.Get("list")
	assert.Equal(t, []any{1, "two", 3.5}, list.(*reactive.List).Values())

	m, _ := root.Get("m")
	x, ok := m.(*reactive.Map).Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1, x)

	s, _ := root.Get("s")
	assert.Equal(t, 2, s.(*reactive.Set).Len())

	none, ok := root.Get("none")
	assert.True(t, ok)
	assert.Nil(t, none)
}

func TestRun_SpecScenario(t *testing.T) {
	s, err := Load("testdata/sum.yaml")
	require.NoError(t, err)

	report, err := Run(s)
	require.NoError(t, err)

	var reads []any
	for _, e := range report.Events {
		if e.Kind == EventRead {
			reads = append(reads, e.Value)
		}
	}
	assert.Equal(t, []any{3.0, 3.0, 12.0}, reads)
	assert.Equal(t, 2, report.Runs["sum"], "one compute plus exactly one recompute")
}

func TestRun_Cart(t *testing.T) {
	s, err := Load("testdata/cart.yaml")
	require.NoError(t, err)

	report, err := Run(s)
	require.NoError(t, err)

	greet := report.EventsOf("greet")
	require.Len(t, greet, 2)
	assert.Equal(t, Event{Step: 0, Kind: EventEffect, Name: "greet", Value: "ada"}, greet[0])
	assert.Equal(t, Event{Step: 1, Kind: EventEffect, Name: "greet", Value: "grace"}, greet[1])

	render := report.EventsOf("render")
	require.Len(t, render, 3, "batched effect runs once per tick")
	assert.Equal(t, []any{11.0, []any{"new"}}, render[0].Value)
	assert.Equal(t, 6, render[1].Step)
	assert.Equal(t, []any{27.0, []any{"new", "sale"}}, render[1].Value)
	assert.Equal(t, 10, render[2].Step)
	assert.Equal(t, []any{8.0, []any{"sale"}}, render[2].Value)

	audit := report.EventsOf("audit")
	require.Len(t, audit, 2)
	assert.Equal(t, Event{Step: 6, Kind: EventWatch, Name: "audit", Value: 10, Old: 1}, audit[0])
	assert.Equal(t, Event{Step: 10, Kind: EventWatch, Name: "audit", Value: nil, Old: 10}, audit[1])

	basket := report.EventsOf("basket")
	require.Len(t, basket, 1)
	assert.Equal(t, 4, basket[0].Step, "deep watch fires synchronously")
	assert.Equal(t, map[string]any{"apple": 5, "pear": 3}, basket[0].Value)

	grand := report.EventsOf("grand")
	var read *Event
	for i := range grand {
		if grand[i].Kind == EventRead {
			read = &grand[i]
		}
	}
	require.NotNil(t, read)
	assert.Equal(t, 27.0, read.Value, "read after tick sees the cached value")

	ticks := report.EventsOf("end")
	require.Len(t, ticks, 1)
	assert.Equal(t, EventTick, ticks[0].Kind)

	assert.Equal(t, map[string]int{
		"greet":  2,
		"render": 3,
		"total":  3,
		"grand":  3,
		"audit":  2,
		"basket": 1,
	}, report.Runs)
}

func TestRun_StepOrderWithinTick(t *testing.T) {
	s, err := Parse("inline.yaml", []byte(`
state:
  n: 0
effects:
  - name: batched
    reads: n
    batched: true
steps:
  - set: {path: n, value: 1}
  - set: {path: n, value: 2}
  - set: {path: n, value: 3}
  - tick: true
  - tick: true
`))
	require.NoError(t, err)

	report, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Runs["batched"])
	ticks := report.EventsOf("tick")
	require.Len(t, ticks, 2)
	assert.Equal(t, 1, ticks[0].Value, "one flush task")
	assert.Equal(t, 0, ticks[1].Value, "nothing left")
}

func TestRun_MissingPathsReadAsNil(t *testing.T) {
	s, err := Parse("inline.yaml", []byte(`
state:
  user: {}
effects:
  - name: e
    reads: user.name
steps:
  - set: {path: user.name, value: ada}
`))
	require.NoError(t, err)

	report, err := Run(s)
	require.NoError(t, err)

	events := report.EventsOf("e")
	require.Len(t, events, 2)
	assert.Nil(t, events[0].Value)
	assert.Equal(t, "ada", events[1].Value, "the effect tracked the missing key")
}

func TestRun_StepErrors(t *testing.T) {
	t.Run("path through a scalar", func(t *testing.T) {
		s, err := Load("testdata/bad_path.yaml")
		require.NoError(t, err)
		_, err = Run(s)
		re := requireCode(t, err, "S002")
		require.NotNil(t, re.Location)
		assert.Equal(t, 5, re.Location.Line)
	})

	tests := []struct {
		name string
		step string
		code string
	}{
		{"push on record", "push: {path: r, value: 1}", "S003"},
		{"add on list", "add: {path: l, value: 1}", "S003"},
		{"set on set", "set: {path: s.a, value: 1}", "S003"},
		{"bad list index", "set: {path: l.x, value: 1}", "S002"},
		{"read missing parent", "read: r.x.y", "S002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("inline.yaml", []byte("state:\n  r: {}\n  l: [1]\n  s: !set [a]\nsteps:\n  - "+tt.step+"\n"))
			require.NoError(t, err)
			_, err = Run(s)
			requireCode(t, err, tt.code)
		})
	}
}

func TestRun_RuntimeOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := Parse("inline.yaml", []byte(`
state:
  n: 0
watches:
  - name: w
    source: n
    flush: later
steps:
  - set: {path: n, value: 1}
`))
	require.NoError(t, err)

	report, err := Run(s, reactive.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "code=R004")
	assert.Equal(t, 1, report.Runs["w"], "invalid flush falls back to sync")
}
