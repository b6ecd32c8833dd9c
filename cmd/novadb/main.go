// Command novadb is the single-process REPL front end: it parses,
// plans, and executes SQL directly against a local data directory, no
// server/client split (unlike the teacher, which is a TCP client talking to
// a separate server process).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/novadb/novadb/internal/config"
	"github.com/novadb/novadb/internal/engine"
	"github.com/novadb/novadb/internal/sql/executor"
)

const banner = `novadb — educational single-node SQL engine
type SQL ending in ';', or .exit to quit`

func main() {
	configPath := flag.String("config", "novadb.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "novadb: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "novadb: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "novadb> ",
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "novadb: readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Println(banner)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("novadb> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil { // EOF
			fmt.Println()
			exitFlushing(eng, 0)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" {
			exitFlushing(eng, 0)
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("   -> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("novadb> ")

		res, err := eng.Exec(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(res)
	}
}

// exitFlushing runs the shutdown flush (spec.md §6: `.exit` triggers
// flush_all() then terminates with exit code 0) and terminates the process.
// A failed flush is itself the fatal I/O case and exits non-zero.
func exitFlushing(eng *engine.Engine, code int) {
	if err := eng.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "novadb: flush on exit: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// statementComplete reports whether buf has a terminating ';' outside a
// single-quoted string.
func statementComplete(buf string) bool {
	inQuote := false
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c == '\'' {
			if inQuote && i+1 < len(buf) && buf[i+1] == '\'' {
				i++
				continue
			}
			inQuote = !inQuote
			continue
		}
		if c == ';' && !inQuote {
			return true
		}
	}
	return false
}

func printResult(res *executor.Result) {
	switch res.Kind {
	case executor.KindAck:
		fmt.Println("OK")
	case executor.KindRowCount:
		fmt.Printf("OK (%d rows affected)\n", res.RowCount)
	case executor.KindRows:
		printRows(res)
	}
}

func printRows(res *executor.Result) {
	cols := make([]string, len(res.Schema.Columns))
	for i, c := range res.Schema.Columns {
		cols[i] = c.Name
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	rendered := make([][]string, len(res.Rows))
	for ri, row := range res.Rows {
		rendered[ri] = make([]string, len(row))
		for i, v := range row {
			s := v.String()
			rendered[ri][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	printRow := func(vals []string) {
		for i, v := range vals {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(v, widths[i]))
		}
		fmt.Println()
	}
	printRow(cols)
	for i, w := range widths {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", w))
	}
	fmt.Println()
	for _, row := range rendered {
		printRow(row)
	}
	fmt.Printf("(%d rows)\n", len(res.Rows))
	fmt.Printf("plan: %s\n", res.Plan)
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
