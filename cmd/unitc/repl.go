package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/magnusjonsson/unitc/internal/parser"
	"github.com/magnusjonsson/unitc/internal/units"
)

const (
	historyFile = ".unitc_history"
	promptMain  = "unit> "
)

const replHelp = `Enter a unit expression to see its canonical form:
  unit> meters * seconds / seconds
  meters
Compare two expressions with ==:
  unit> meters / seconds == meters * (1 / seconds)
  compatible
Commands: :help, :quit`

func handleRepl(_ []string) int {
	fmt.Println("unitc unit calculator. Type :help for help, :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	in := units.NewInterner()
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return 0
		case ":help":
			fmt.Println(replHelp)
			continue
		}
		ln.AppendHistory(line)

		out, err := evalLine(line, in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			continue
		}
		fmt.Println(out)
	}
}

// evalLine renders a unit expression canonically, or compares two
// expressions separated by ==
func evalLine(line string, in *units.Interner) (string, error) {
	if strings.HasPrefix(line, ":") {
		return "", errors.Errorf("unknown command %s; type :help", line)
	}

	left, right, compare := strings.Cut(line, "==")
	a, err := parser.New(strings.TrimSpace(left)).Parse(in)
	if err != nil {
		return "", err
	}
	if !compare {
		return a.String(), nil
	}

	b, err := parser.New(strings.TrimSpace(right)).Parse(in)
	if err != nil {
		return "", err
	}
	if units.Compatible(a, b) {
		return "compatible", nil
	}
	return fmt.Sprintf("incompatible: %s vs %s", a, b), nil
}
