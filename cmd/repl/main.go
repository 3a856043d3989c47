package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"matrixscript/pkg/compiler"
	"matrixscript/pkg/jit"
)

const (
	historyFile = ".matrixscript_history"
	prompt      = "msc> "
	banner      = "MatrixScript REPL\nlet-statements extend the session; anything else runs as an expression.\nCtrl+D or :quit exits, :reset clears bindings."
)

// session accumulates the let-statements entered so far. Every evaluation
// wraps them with the new expression into a fresh main and compiles the whole
// thing from scratch; compiling the same prelude twice always yields the same
// bindings.
type session struct {
	prelude []string
}

func (s *session) wrap(returnExpr string) string {
	var sb strings.Builder
	sb.WriteString("fn main() {\n")
	for _, line := range s.prelude {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "return %s;\n}\n", returnExpr)
	return sb.String()
}

// eval compiles and runs a single wrapped program.
func eval(src string) (jit.Result, error) {
	mod, err := compiler.Compile(src)
	if err != nil {
		return jit.Result{}, err
	}
	engine, err := jit.NewEngine(mod)
	if err != nil {
		return jit.Result{}, err
	}
	return engine.Run("main")
}

func printResult(res jit.Result) {
	if res.Kind == jit.MatrixResult {
		fmt.Println(res.Matrix)
		return
	}
	fmt.Printf("%g\n", res.Scalar)
}

func main() {
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

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sess := &session{}

	for {
		input, err := ln.Prompt(prompt)
		if err != nil {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			switch strings.ToLower(line) {
			case ":quit":
				return
			case ":reset":
				sess.prelude = nil
				fmt.Println("bindings cleared")
			default:
				fmt.Println("unknown command; :quit exits, :reset clears bindings")
			}
			continue
		}

		ln.AppendHistory(line)

		if strings.HasPrefix(line, "let ") {
			if !strings.HasSuffix(line, ";") {
				line += ";"
			}
			// Probe-compile with the candidate binding in place before
			// committing it to the prelude.
			sess.prelude = append(sess.prelude, line)
			if _, err := compiler.Compile(sess.wrap("0.0")); err != nil {
				sess.prelude = sess.prelude[:len(sess.prelude)-1]
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}

		expr := strings.TrimSuffix(line, ";")
		res, err := eval(sess.wrap(expr))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printResult(res)
	}
}
