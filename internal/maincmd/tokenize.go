package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/gkjpettet/objo/lang/lexer"
)

func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	toks, err := lexer.Tokenize(string(source), 0)
	for _, t := range toks {
		fmt.Fprintf(stdio.Stdout, "%s:%d: %s", args[0], t.Line, t.Kind)
		if t.Lexeme != "" {
			fmt.Fprintf(stdio.Stdout, " %q", t.Lexeme)
		}
		fmt.Fprintln(stdio.Stdout)
	}
	if err != nil {
		return printError(stdio, err)
	}
	return nil
}
