package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/nanoofficial/nano/internal/machine"
	"github.com/nanoofficial/nano/internal/uplc"
)

const replHistoryFile = ".nano_uplc_history"

// runREPL evaluates UPLC terms interactively with a fresh default budget
// per line.
func runREPL() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), replHistoryFile)
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("%s UPLC repl — enter a term like [(lam x x) (con integer 42)], :q to quit\n", bold("nano"))

	for {
		input, err := line.Prompt("uplc> ")
		if err != nil {
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == ":q" || input == ":quit" {
			return
		}
		line.AppendHistory(input)

		term, err := uplc.ParseTerm(input)
		if err != nil {
			fmt.Printf("%s %s\n", red("parse error:"), err)
			continue
		}

		program := &uplc.Program{Version: [3]uint64{1, 0, 0}, Term: term}
		named, err := program.ToNamedDeBruijn()
		if err != nil {
			fmt.Printf("%s %s\n", red("error:"), err)
			continue
		}

		printEvalResult(machine.EvalDefault(named))
	}
}
