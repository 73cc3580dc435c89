package compiler

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/cfront"
	"github.com/magnusjonsson/unitc/internal/checker"
	"github.com/magnusjonsson/unitc/internal/config"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
	"github.com/magnusjonsson/unitc/internal/linter"
)

// Result holds the output of checking one translation unit
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Program     *ast.Program
	Check       *checker.CheckResult
}

// Compile runs the pipeline: parse -> resolve/check. Frontend errors stop
// the pipeline before checking, since the tree may be incomplete.
func Compile(source []byte, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	prog, diags, err := cfront.Parse(source, cfg.Attribute)
	if err != nil {
		return nil, err
	}
	res := &Result{Diagnostics: diags, Program: prog}
	if diags.HasErrors() {
		return res, nil
	}

	res.Check = checker.CheckWithResult(prog, checker.OptionsFromConfig(cfg))
	res.Diagnostics.Merge("", res.Check.Diagnostics)
	return res, nil
}

// Check runs parse + check and returns the diagnostics.
func Check(source []byte, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	res, err := Compile(source, cfg)
	if err != nil {
		return nil, err
	}
	return res.Diagnostics, nil
}

// Lint runs parse + lint. The linter only warns; frontend errors are
// returned as they are.
func Lint(source []byte, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	prog, diags, err := cfront.Parse(source, cfg.Attribute)
	if err != nil {
		return nil, err
	}
	if diags.HasErrors() {
		return diags, nil
	}
	diags.Merge("", linter.Lint(prog, linter.Options{BaseUnits: cfg.BaseUnits}))
	return diags, nil
}

// Dump returns the lowered tree of source annotated with the unit the
// checker inferred for every node, followed by the diagnostics, if any.
func Dump(source []byte, cfg *config.Config) (string, *diagnostic.Diagnostics, error) {
	res, err := Compile(source, cfg)
	if err != nil {
		return "", nil, err
	}
	var annotate ast.Annotator
	if res.Check != nil {
		annotate = func(n ast.Node) string {
			if m, ok := res.Check.UnitOf(n); ok {
				return m.String()
			}
			return ""
		}
	}
	return ast.PrintProgram(res.Program, annotate), res.Diagnostics, nil
}

// CheckFile reads and checks the file at path. Diagnostics carry the
// file name.
func CheckFile(path string, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	return runFile(path, cfg, Check)
}

// CheckFiles checks each file independently and returns the diagnostics
// of all of them, sorted by file and position.
func CheckFiles(paths []string, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	return runFiles(paths, cfg, Check)
}

// LintFiles lints each file independently.
func LintFiles(paths []string, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	return runFiles(paths, cfg, Lint)
}

type stage func([]byte, *config.Config) (*diagnostic.Diagnostics, error)

func runFile(path string, cfg *config.Config, run stage) (*diagnostic.Diagnostics, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	diags, err := run(source, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	out := diagnostic.New()
	out.Merge(filepath.ToSlash(path), diags)
	return out, nil
}

func runFiles(paths []string, cfg *config.Config, run stage) (*diagnostic.Diagnostics, error) {
	all := diagnostic.New()
	for _, path := range paths {
		diags, err := runFile(path, cfg, run)
		if err != nil {
			return nil, err
		}
		all.Merge("", diags)
	}
	all.SortByPosition()
	return all, nil
}
