package main

import (
	"fmt"
	"log"
	"os"

	"matrixscript/pkg/compiler"
	"matrixscript/pkg/jit"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: msc <file.ms> [--show-ir]")
		os.Exit(2)
	}
	filename := os.Args[1]
	showIR := false
	for _, arg := range os.Args[2:] {
		if arg == "--show-ir" {
			showIR = true
		}
	}

	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	mod, err := compiler.Compile(string(sourceBytes))
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if showIR {
		fmt.Println(mod.Dump())
	}

	engine, err := jit.NewEngine(mod)
	if err != nil {
		log.Fatalf("Engine setup failed: %v", err)
	}

	result, err := engine.Run("main")
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}

	switch result.Kind {
	case jit.MatrixResult:
		fmt.Printf("Result: %s\n", result.Matrix)
	default:
		fmt.Printf("Result: %g\n", result.Scalar)
	}
}
