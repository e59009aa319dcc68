// Package factory generates families of tests from the cartesian product
// of named option values.
package factory

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/verilab/regress/registry"
	"github.com/verilab/regress/types"
)

// TemplateFunc is a test body template. It is invoked once per generated
// test with that test's chosen option values.
type TemplateFunc func(tc *types.TestContext, opts Options) error

// Options holds the option values chosen for one generated test.
type Options map[string]any

// NamedValue wraps an option value with an explicit name and a one-line
// description for the generated test's documentation.
type NamedValue struct {
	Name  string
	Doc   string
	Value any
}

// optionGroup is one or more co-varying option names with their candidate
// value tuples. Single options are groups of arity one.
type optionGroup struct {
	names  []string
	values [][]any
}

// TestFactory expands registered options into individual tests.
type TestFactory struct {
	name   string
	fn     TemplateFunc
	log    log.Logger
	groups []optionGroup
}

// NewTestFactory creates a factory for the given template. The base name
// defaults to the template function's short name.
func NewTestFactory(name string, fn TemplateFunc, logger log.Logger) *TestFactory {
	if logger == nil {
		logger = log.New()
	}
	if name == "" {
		name = shortFuncName(fn)
	}
	return &TestFactory{name: name, fn: fn, log: logger}
}

// AddOption registers a single named option with its candidate values.
func (f *TestFactory) AddOption(name string, values ...any) {
	tuples := make([][]any, len(values))
	for i, v := range values {
		tuples[i] = []any{v}
	}
	f.groups = append(f.groups, optionGroup{names: []string{name}, values: tuples})
}

// AddOptionGroup registers co-varying options. Every tuple must have one
// value per name; a mismatch is a configuration error reported here, not
// at generation time.
func (f *TestFactory) AddOptionGroup(names []string, tuples [][]any) error {
	for _, tuple := range tuples {
		if len(tuple) != len(names) {
			return fmt.Errorf("mismatch between number of options (%d) and number of option values (%d) in group %v",
				len(names), len(tuple), names)
		}
	}
	f.groups = append(f.groups, optionGroup{names: names, values: tuples})
	return nil
}

// GenerateConfig carries the per-descriptor settings shared by every
// generated test.
type GenerateConfig struct {
	Name        string // base name override
	Module      string
	TimeoutTime float64
	TimeoutUnit types.TimeUnit
	ExpectFail  bool
	ExpectError []types.FailureKind
	Skip        bool
	Stage       int
}

// GenerateTests computes the cartesian product over all registered option
// groups, in registration order with later groups varying fastest, and
// registers one test per product element on the given set. Names carry a
// zero-padded index suffix so generated order is stable and reproducible.
func (f *TestFactory) GenerateTests(set *registry.TestSet, cfg GenerateConfig) {
	base := cfg.Name
	if base == "" {
		base = f.name
	}

	total := 1
	for _, g := range f.groups {
		total *= len(g.values)
	}
	if len(f.groups) == 0 {
		total = 1
	}

	indices := make([]int, len(f.groups))
	for i := 0; i < total; i++ {
		opts, doc := f.materialize(indices)
		name := fmt.Sprintf("%s_%03d", base, i+1)

		fn := f.fn
		body := func(tc *types.TestContext) error {
			return fn(tc, opts)
		}

		set.Add(types.NewTest(types.TestConfig{
			Body:        body,
			Name:        name,
			Module:      cfg.Module,
			Doc:         doc,
			TimeoutTime: cfg.TimeoutTime,
			TimeoutUnit: cfg.TimeoutUnit,
			ExpectFail:  cfg.ExpectFail,
			ExpectError: cfg.ExpectError,
			Skip:        cfg.Skip,
			Stage:       cfg.Stage,
		}))

		// odometer increment, last group varies fastest
		for g := len(indices) - 1; g >= 0; g-- {
			indices[g]++
			if indices[g] < len(f.groups[g].values) {
				break
			}
			indices[g] = 0
		}
	}
}

// materialize flattens the chosen tuple of every group back into
// individual named option values and renders the documentation summary.
func (f *TestFactory) materialize(indices []int) (Options, string) {
	opts := make(Options)
	var doc strings.Builder
	doc.WriteString("Automatically generated test\n\n")

	for g, group := range f.groups {
		tuple := group.values[indices[g]]
		for n, name := range group.names {
			value := tuple[n]
			fmt.Fprintf(&doc, "\t%s: %s\n", name, describeValue(value))
			if nv, ok := value.(NamedValue); ok {
				value = nv.Value
			}
			opts[name] = value
		}
	}
	return opts, doc.String()
}

// describeValue renders one option value for the generated doc: named
// values use their name plus first doc line, callables their short
// function name, everything else its textual representation.
func describeValue(v any) string {
	if nv, ok := v.(NamedValue); ok {
		doc := strings.SplitN(nv.Doc, "\n", 2)[0]
		if doc == "" {
			return nv.Name
		}
		return fmt.Sprintf("%s (%s)", nv.Name, doc)
	}
	if v != nil && reflect.ValueOf(v).Kind() == reflect.Func {
		return shortSymbol(runtime.FuncForPC(reflect.ValueOf(v).Pointer()).Name())
	}
	return fmt.Sprintf("%v", v)
}

func shortFuncName(fn TemplateFunc) string {
	if fn == nil {
		return "generated"
	}
	return shortSymbol(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}

func shortSymbol(symbol string) string {
	if idx := strings.LastIndex(symbol, "."); idx >= 0 {
		return symbol[idx+1:]
	}
	return symbol
}
