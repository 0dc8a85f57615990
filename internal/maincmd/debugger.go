package maincmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/gkjpettet/objo/internal/driver"
	"github.com/gkjpettet/objo/lang/vm"
)

// debugSession drives one `:debug` run through the REPL. The interpreter
// executes on its own goroutine with Stepping enabled; VM.WillStop pauses it
// at each new source line until :next or :continue calls Resume from the
// REPL's own goroutine. There is no :quit-while-running: per spec.md's
// debugger model there are no suspension points or cancellation channel, so
// a started run can only be stepped or continued to completion, never
// aborted.
type debugSession struct {
	stdout io.Writer
	stderr io.Writer

	mu      sync.Mutex
	vm      *vm.VM
	running bool
	stopped bool
	line    int
}

func newDebugSession(stdout, stderr io.Writer) *debugSession {
	return &debugSession{stdout: stdout, stderr: stderr}
}

// active reports whether a debugged run is in flight (running or paused).
func (d *debugSession) active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// isStopped reports whether the run is currently parked at a source line.
func (d *debugSession) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

func (d *debugSession) prompt() string {
	if d.isStopped() {
		return fmt.Sprintf("(debug:%d)> ", d.line)
	}
	return "objo> "
}

// willStop is installed as VM.WillStop; it records where the run paused and
// prints a status line, then returns immediately. The VM itself is the one
// that blocks on Resume, from inside its own dispatch loop, not this call.
func (d *debugSession) willStop(m *vm.VM, scriptID, line int) {
	d.mu.Lock()
	d.stopped = true
	d.line = line
	d.mu.Unlock()
	fmt.Fprintf(d.stdout, "stopped at script %d, line %d\n", scriptID, line)
}

// start compiles source and runs it in stepping mode on its own goroutine,
// driving p.VM. p.VM.WillStop must already be set to
// d.willStop by the caller.
func (d *debugSession) start(p *driver.Pipeline, source, name string) {
	chunk, err := driver.Compile(source, name)
	if err != nil {
		fmt.Fprintln(d.stderr, err)
		return
	}

	d.mu.Lock()
	d.vm = p.VM
	d.running = true
	d.stopped = false
	d.mu.Unlock()

	go func() {
		result, err := p.VM.Run(chunk, true)
		d.mu.Lock()
		d.running = false
		d.stopped = false
		d.mu.Unlock()
		if err != nil {
			fmt.Fprintln(d.stderr, err)
			return
		}
		if result != nil {
			fmt.Fprintln(d.stdout, result)
		}
	}()
}

// command handles one REPL line while a debug session is active, returning
// false if input isn't a recognised debugger command (the caller then
// reports that the debugger is busy).
func (d *debugSession) command(input string) bool {
	switch input {
	case ":next", ":step":
		return d.resume(true)
	case ":continue", ":cont":
		return d.resume(false)
	case ":locals":
		d.printLocals()
		return true
	case ":stack":
		d.printStack()
		return true
	default:
		return false
	}
}

func (d *debugSession) resume(stepping bool) bool {
	d.mu.Lock()
	m, stopped := d.vm, d.stopped
	d.mu.Unlock()
	if !stopped {
		fmt.Fprintln(d.stderr, "debugger is still running; wait for it to stop")
		return true
	}
	m.Stepping = stepping
	d.mu.Lock()
	d.stopped = false
	d.mu.Unlock()
	m.Resume()
	return true
}

func (d *debugSession) printLocals() {
	d.mu.Lock()
	m, stopped := d.vm, d.stopped
	d.mu.Unlock()
	if !stopped {
		fmt.Fprintln(d.stderr, "debugger is still running")
		return
	}
	locals := m.Locals()
	if len(locals) == 0 {
		fmt.Fprintln(d.stdout, "(no locals)")
		return
	}
	for i, v := range locals {
		fmt.Fprintf(d.stdout, "  [%d] %s\n", i, v)
	}
}

func (d *debugSession) printStack() {
	d.mu.Lock()
	m, stopped := d.vm, d.stopped
	d.mu.Unlock()
	if !stopped {
		fmt.Fprintln(d.stderr, "debugger is still running")
		return
	}
	for _, f := range m.StackTrace() {
		fmt.Fprintf(d.stdout, "  %s\n", f)
	}
}
