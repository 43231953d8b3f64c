// main.go
//
// A small interactive driver for the execution core, grounded on the
// teacher's cmd/msg/main.go REPL (liner-based prompt loop, history
// file, Ctrl+C/Ctrl+D handling, ANSI color helpers). This binary is
// ambient demo tooling, not part of the core deliverable (spec §1
// explicitly places the REPL/CLI driver out of scope) — it exists so
// the core has somewhere to exercise github.com/peterh/liner and so a
// human can poke at the VM without writing a Go test.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/zzmjohn/riposte"
)

const (
	appName     = "riposte"
	historyFile = ".riposte_history"
	promptMain  = "> "
	promptCont  = "... "
)

var banner = "riposte execution-core demo REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit."

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	os.Exit(run())
}

func run() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip := riposte.NewInterpreter()

	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.ToLower(trimmed) == ":quit" {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		expr, err := parseProgram(ip, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		v, err := ip.Eval(expr)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(blue(riposte.Deparse(v) + " = " + v.String()))
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
	return 0
}

// readStatement reads lines from ln until it has a syntactically
// complete statement (a balanced count of parens and braces), or
// returns ok=false on EOF.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	depth := 0
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(promptMain)
		} else {
			line, err = ln.Prompt(promptCont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		depth += strings.Count(line, "(") + strings.Count(line, "{")
		depth -= strings.Count(line, ")") + strings.Count(line, "}")
		if depth <= 0 {
			return b.String(), true
		}
	}
}
