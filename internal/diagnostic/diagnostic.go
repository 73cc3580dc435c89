package diagnostic

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
	"golang.org/x/exp/slices"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is one (severity, location, message) triple
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	File     string // optional file path
	Hint     string // optional suggestion
}

// Diagnostics collects diagnostic messages in the order they are reported
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// Add appends a diagnostic
func (d *Diagnostics) Add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Line: line, Column: col})
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Line: line, Column: col})
}

// ErrorWithHint adds an error diagnostic with an optional hint
func (d *Diagnostics) ErrorWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{Severity: Error, Message: msg, Line: line, Column: col, Hint: hint})
}

// WarningWithHint adds a warning diagnostic with an optional hint
func (d *Diagnostics) WarningWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{Severity: Warning, Message: msg, Line: line, Column: col, Hint: hint})
}

// Merge appends every diagnostic of other, setting File on those that
// have none
func (d *Diagnostics) Merge(file string, other *Diagnostics) {
	if other == nil {
		return
	}
	for _, item := range other.items {
		if item.File == "" {
			item.File = file
		}
		d.items = append(d.items, item)
	}
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	return d.countOf(Error)
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	return d.countOf(Warning)
}

func (d *Diagnostics) countOf(s Severity) int {
	count := 0
	for _, item := range d.items {
		if item.Severity == s {
			count++
		}
	}
	return count
}

// SortByPosition orders diagnostics by file, line, and column, keeping
// report order for ties
func (d *Diagnostics) SortByPosition() {
	slices.SortStableFunc(d.items, func(a, b Diagnostic) int {
		switch {
		case a.File != b.File:
			return strings.Compare(a.File, b.File)
		case a.Line != b.Line:
			return a.Line - b.Line
		}
		return a.Column - b.Column
	})
}

// Format returns human-readable messages, one per line:
//
//	error[area.c:3:10]: assignment from unit seconds to unit meters
//	  hint: write "meters"
//	warning[area.c:5:1]: construct not yet handled: call_expression
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}

		builder.WriteString(fmt.Sprintf("%s[%s:%d:%d]: %s",
			item.Severity.String(),
			fileToUse,
			item.Line,
			item.Column,
			item.Message,
		))

		if item.Hint != "" {
			builder.WriteString(fmt.Sprintf("\n  hint: %s", item.Hint))
		}

		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// FormatJSON returns the diagnostics as a JSON array of objects with
// severity, file, line, column, message and (when set) hint keys
func (d *Diagnostics) FormatJSON(filename string) string {
	var a fastjson.Arena
	arr := a.NewArray()
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}
		obj := a.NewObject()
		obj.Set("severity", a.NewString(item.Severity.String()))
		obj.Set("file", a.NewString(fileToUse))
		obj.Set("line", a.NewNumberInt(item.Line))
		obj.Set("column", a.NewNumberInt(item.Column))
		obj.Set("message", a.NewString(item.Message))
		if item.Hint != "" {
			obj.Set("hint", a.NewString(item.Hint))
		}
		arr.SetArrayItem(i, obj)
	}
	return string(arr.MarshalTo(nil))
}

// Clear removes all diagnostics from the collection
func (d *Diagnostics) Clear() {
	d.items = make([]Diagnostic, 0)
}
