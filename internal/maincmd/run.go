package maincmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mna/mainer"

	"github.com/gkjpettet/objo/internal/driver"
	"github.com/gkjpettet/objo/lang/vm"
)

func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	p := driver.New(stdio.Stdout, stdio.Stderr)
	if c.cfg != nil && c.cfg.MaxFrames > 0 {
		p.VM.MaxCallDepth = c.cfg.MaxFrames
	}
	if c.cfg != nil && c.cfg.MaxSteps > 0 {
		p.VM.MaxSteps = int64(c.cfg.MaxSteps)
	}
	if c.cfg != nil && c.cfg.TraceCalls {
		p.VM.OnBreakpoint = func(m *vm.VM) {
			fmt.Fprintf(stdio.Stderr, "[%s] breakpoint\n", m.SessionID)
		}
		fmt.Fprintf(stdio.Stderr, "[%s] running %s\n", p.VM.SessionID, args[0])
	}

	start := time.Now()
	_, err = p.Run(string(source), args[0])
	elapsed := time.Since(start)
	if err != nil {
		if rerr, ok := err.(*vm.RuntimeError); ok {
			fmt.Fprintln(stdio.Stderr, rerr.Error())
			for _, fr := range rerr.Trace {
				fmt.Fprintf(stdio.Stderr, "  at %s\n", fr)
			}
			return rerr
		}
		return printError(stdio, err)
	}

	if c.cfg != nil && c.cfg.TraceCalls {
		fmt.Fprintf(stdio.Stderr, "completed in %s\n", elapsed)
	}
	return nil
}
