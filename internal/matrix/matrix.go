package matrix

import (
	"github.com/qatools/testmatrix/internal/testid"
)

// Case is one test case slot in the matrix. Result and log are intentionally
// empty placeholders filled in later by test-execution tooling.
type Case struct {
	Name   string `json:"testcasename"`
	Result string `json:"testresult"`
	Log    string `json:"testlog"`
}

// Suite is a named group of test cases, keyed by module-class name.
type Suite struct {
	Name  string `json:"testsuitename"`
	Cases []Case `json:"testcase"`
}

// Document is the top-level testsuite/testcase structure serialized per
// invocation.
type Document struct {
	Suites []Suite `json:"testsuite"`
}

// Grouping is an insertion-ordered string multimap. Iteration follows
// first-seen key order so the generated document is reproducible.
type Grouping struct {
	keys   []string
	values map[string][]string
}

// NewGrouping creates an empty grouping.
func NewGrouping() *Grouping {
	return &Grouping{values: make(map[string][]string)}
}

// Add appends value under key, registering the key on first use.
func (g *Grouping) Add(key, value string) {
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = append(g.values[key], value)
}

// Keys returns the keys in first-seen order.
func (g *Grouping) Keys() []string {
	return g.keys
}

// Get returns the values recorded under key, in insertion order.
func (g *Grouping) Get(key string) []string {
	return g.values[key]
}

// Len returns the number of distinct keys.
func (g *Grouping) Len() int {
	return len(g.keys)
}

// GroupByModuleClass groups a flat test list by its module-class key. Values
// are the bare function names, preserving input order; duplicates are kept.
func GroupByModuleClass(ids []testid.TestID) *Grouping {
	g := NewGrouping()
	for _, id := range ids {
		g.Add(id.ModuleClassKey(), id.Function)
	}
	return g
}

// GroupByModule groups module-class keys by their module component. Values
// are the full module-class keys.
func GroupByModule(keys []string) *Grouping {
	g := NewGrouping()
	for _, key := range keys {
		module, _ := testid.SplitModuleClass(key)
		g.Add(module, key)
	}
	return g
}

// Build assembles the matrix document: one suite per name, each case named
// "suiteName.function" with empty result and log slots. A suite name missing
// from the grouping yields an empty case list rather than an error.
func Build(suiteNames []string, byModuleClass *Grouping) Document {
	doc := Document{Suites: make([]Suite, 0, len(suiteNames))}
	for _, name := range suiteNames {
		suite := Suite{Name: name, Cases: []Case{}}
		for _, function := range byModuleClass.Get(name) {
			suite.Cases = append(suite.Cases, Case{Name: name + "." + function})
		}
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

// FromTestIDs is the whole pipeline for the common case: group the flat test
// list and build a document covering every discovered suite.
func FromTestIDs(ids []testid.TestID) Document {
	grouping := GroupByModuleClass(ids)
	return Build(grouping.Keys(), grouping)
}
