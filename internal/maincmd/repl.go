package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mna/mainer"

	"github.com/gkjpettet/objo/internal/driver"
	"github.com/gkjpettet/objo/lang/vm"
)

// Repl runs an interactive read-eval-print loop against a single Pipeline,
// so variables and classes declared in one line stay visible to the next.
// A line typed as `:debug <source>` runs that source in the minimal
// single-step debugger instead: :next/:step and :continue drive it forward,
// :locals and :stack inspect it, and the prompt changes to `(debug:N)>`
// while it's paused. See debugSession for the step/continue/locals/stack
// command loop itself.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd())

	p := driver.New(stdio.Stdout, stdio.Stderr)
	if c.cfg != nil && c.cfg.MaxFrames > 0 {
		p.VM.MaxCallDepth = c.cfg.MaxFrames
	}
	if c.cfg != nil && c.cfg.MaxSteps > 0 {
		p.VM.MaxSteps = int64(c.cfg.MaxSteps)
	}
	p.VM.OnBreakpoint = func(m *vm.VM) {
		fmt.Fprintf(stdio.Stderr, "[%s] breakpoint\n", m.SessionID)
	}

	dbg := newDebugSession(stdio.Stdout, stdio.Stderr)
	p.VM.WillStop = dbg.willStop

	scanner := bufio.NewScanner(stdio.Stdin)
	for line := 1; ; line++ {
		if interactive {
			fmt.Fprint(stdio.Stdout, dbg.prompt())
		}
		if !scanner.Scan() {
			break
		}
		source := strings.TrimSpace(scanner.Text())
		if source == "" {
			continue
		}

		if dbg.active() {
			if dbg.command(source) {
				continue
			}
			fmt.Fprintln(stdio.Stderr, "debugger is active; use :next, :continue, :locals, or :stack")
			continue
		}

		if rest, ok := strings.CutPrefix(source, ":debug"); ok {
			rest = strings.TrimSpace(rest)
			if rest == "" {
				fmt.Fprintln(stdio.Stderr, "usage: :debug <source>")
				continue
			}
			dbg.start(p, rest, fmt.Sprintf("repl:%d", line))
			continue
		}

		result, err := p.Run(source, fmt.Sprintf("repl:%d", line))
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if result != nil {
			fmt.Fprintln(stdio.Stdout, result)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return scanner.Err()
	}
}
