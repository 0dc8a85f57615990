package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/parser"
)

func (c *Cmd) Parse(_ context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	chunk, err := parser.Parse(string(source), 0)
	if err != nil {
		return printError(stdio, err)
	}

	dumper := &treeDumper{out: stdio.Stdout}
	ast.Walk(dumper, chunk)

	return nil
}

// treeDumper prints one indented line per node, depth tracking how far
// Walk has descended.
type treeDumper struct {
	out   io.Writer
	depth int
}

func (d *treeDumper) Visit(n ast.Node, dir ast.VisitDirection) ast.Visitor {
	if dir == ast.VisitExit {
		d.depth--
		return nil
	}
	fmt.Fprintf(d.out, "%*sline %d: %T\n", d.depth*2, "", n.Line(), n)
	d.depth++
	return d
}
