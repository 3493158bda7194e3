package testid

import (
	"fmt"
	"strings"
)

// TestID identifies a single discovered test in the canonical
// "test_function (module.Class)" form used by unittest-style loaders.
type TestID struct {
	Function string // e.g. "test_add"
	Module   string // e.g. "test_math"
	Class    string // e.g. "TestMath", empty for module-level functions
}

// Parse parses a canonical identifier string into a TestID.
// The module-class key is the text between the first "(" and the first ")",
// the function name is everything before the " (" separator.
func Parse(s string) (TestID, error) {
	open := strings.Index(s, "(")
	closing := strings.Index(s, ")")
	if open == -1 || closing == -1 || closing < open {
		return TestID{}, fmt.Errorf("malformed test identifier: %q", s)
	}

	key := s[open+1 : closing]
	function := strings.TrimRight(s[:open], " ")
	if function == "" {
		return TestID{}, fmt.Errorf("test identifier has no function name: %q", s)
	}

	module, class := SplitModuleClass(key)
	if module == "" {
		return TestID{}, fmt.Errorf("test identifier has no module name: %q", s)
	}

	return TestID{Function: function, Module: module, Class: class}, nil
}

// SplitModuleClass splits a "module.Class" key at the first dot.
// A key without a dot is a bare module with no class component.
func SplitModuleClass(key string) (module, class string) {
	idx := strings.Index(key, ".")
	if idx == -1 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// ModuleClassKey returns the "module.Class" key for this test, or just the
// module name when there is no class.
func (id TestID) ModuleClassKey() string {
	if id.Class == "" {
		return id.Module
	}
	return id.Module + "." + id.Class
}

// String round-trips the TestID back to its canonical identifier form.
func (id TestID) String() string {
	return fmt.Sprintf("%s (%s)", id.Function, id.ModuleClassKey())
}
