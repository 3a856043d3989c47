package compiler

import (
	"fmt"

	"matrixscript/pkg/ir"
)

// Compile runs the whole front end over src and returns the generated IR
// module, ready for the execution engine. The first failure in any stage
// stops the pipeline; the returned error names the stage.
func Compile(src string) (*ir.Module, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	prog, err := Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	mod, err := Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	return mod, nil
}
