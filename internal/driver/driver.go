// Package driver implements the tokenize/parse/compile/run pipeline shared
// by the CLI and by tests: the single place that wires the lexer, parser,
// compiler and VM together against a named source string.
package driver

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/gkjpettet/objo/lang/compiler"
	"github.com/gkjpettet/objo/lang/parser"
	"github.com/gkjpettet/objo/lang/values"
	"github.com/gkjpettet/objo/lang/vm"
)

// nextScriptID hands out a fresh ID for each script a Pipeline compiles, so
// stack traces and the debugger can tell two scripts apart even when a host
// runs several through the same Pipeline.
var nextScriptID int64

// Pipeline is a ready-to-run Objo interpreter: one VM (with its globals and
// core library) shared across every script it runs, matching how a REPL or
// an embedding host keeps state alive between calls.
type Pipeline struct {
	VM *vm.VM
}

// New returns a Pipeline whose VM writes program output to stdout.
func New(stdout, stderr io.Writer) *Pipeline {
	m := vm.New()
	m.Stdout = stdout
	m.Stderr = stderr
	return &Pipeline{VM: m}
}

// Compile tokenizes, parses and compiles source into an executable chunk
// without running it, surfacing lexer/parser/compiler errors directly.
func Compile(source, name string) (*values.Chunk, error) {
	scriptID := int(atomic.AddInt64(&nextScriptID, 1))
	astChunk, err := parser.Parse(source, scriptID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	chunk, err := compiler.Compile(astChunk, scriptID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return chunk, nil
}

// Run compiles and interprets source against the pipeline's VM, returning
// the value its top-level implicit return leaves behind.
func (p *Pipeline) Run(source, name string) (values.Value, error) {
	chunk, err := Compile(source, name)
	if err != nil {
		return nil, err
	}
	return p.VM.Interpret(chunk)
}
