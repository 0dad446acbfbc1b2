// Package testutil holds test helpers that enforce package boundaries of the
// foodbike module.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// ModulePath is the import path prefix of this module.
const ModulePath = "foodbike"

// AssertNoDirectImports parses the non-test .go files in dir and fails if any
// import path satisfies forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

// InternalImportForbidden matches any module-internal import.
func InternalImportForbidden(path string) bool {
	return path == ModulePath+"/internal" || strings.HasPrefix(path, ModulePath+"/internal/")
}

// InfraImportForbidden matches the concrete backend packages under internal/infra.
func InfraImportForbidden(path string) bool {
	return strings.HasPrefix(path, ModulePath+"/internal/infra/")
}

// OnlyModuleImports returns a predicate matching module imports outside allowed.
// Standard library and third-party imports always pass.
func OnlyModuleImports(allowed ...string) func(string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(path string) bool {
		if path != ModulePath && !strings.HasPrefix(path, ModulePath+"/") {
			return false
		}
		_, ok := set[path]
		return !ok
	}
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
