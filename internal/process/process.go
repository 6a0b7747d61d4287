// Package process manages a single Minecraft server's PTY-backed child
// process: launch sequencing, graceful/forceful shutdown, console I/O,
// and resource sampling.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

// ErrOutOfMemory is returned by Start when the free-memory check is
// enabled and rejects the launch.
var ErrOutOfMemory = fmt.Errorf("insufficient free memory")

// LaunchOptions bundles everything Start needs beyond the server's own
// persisted config: the directory to run in and the resolved java binary.
type LaunchOptions struct {
	Directory      string
	JavaExecutable string
	EffectiveOpt   types.EffectiveLaunchOption
	ShutdownTimeout time.Duration
	StopCommand    string
}

// Process is one managed server's runtime state: its PTY-backed child,
// state machine, console ring buffer, and perf sampler. Grounded on the
// manager/session-handle split in the teacher's PTY managers, collapsed
// to a single type per server since swi has exactly one PTY per server,
// not an arbitrary number of exec sessions.
type Process struct {
	ServerID string
	bus      *events.Bus

	mu      sync.Mutex // serializes Start/Stop/Kill against each other
	state   *stateHolder
	cmd     *exec.Cmd
	ptmx    *os.File
	started time.Time
	cancel  context.CancelFunc
	doneCh  chan struct{}

	ring *consoleRing

	monMu sync.RWMutex
	perf  *types.PerfStats
}

// New creates a Process in the STOPPED state.
func New(serverID string, bus *events.Bus, ringCapacity int) *Process {
	return &Process{
		ServerID: serverID,
		bus:      bus,
		state:    newStateHolder(serverID, bus),
		ring:     newConsoleRing(ringCapacity),
	}
}

// State returns the server's current lifecycle state.
func (p *Process) State() types.ServerState { return p.state.get() }

// ConsoleTail returns up to n of the most recently read console lines.
func (p *Process) ConsoleTail(n int) []string { return p.ring.tail(n) }

// Start launches the server's child process. Returns an error without
// mutating state if the free-memory check fails or argv can't be built.
// ServerPreStart handlers get a copy of the event, so the Cancel check
// below never sees a value they set and does not stop the launch.
func (p *Process) Start(ctx context.Context, opt LaunchOptions, sc *types.ServerConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.get() != types.StateStopped {
		return fmt.Errorf("server %s: cannot start from state %s", p.ServerID, p.state.get())
	}

	pre := events.ServerPreStart{ServerID: p.ServerID}
	p.bus.Publish(pre)
	if pre.Cancel != nil {
		return fmt.Errorf("launch cancelled: %w", pre.Cancel)
	}

	if opt.EffectiveOpt.EnableFreeMemoryCheck {
		ok, required, available, err := CheckFreeMemory(opt.EffectiveOpt.MaxHeapMemoryMB)
		if err == nil && !ok {
			p.bus.Publish(events.WatchdogMemoryWarning{ServerID: p.ServerID, Required: required, Available: available})
			return fmt.Errorf("%w: need %d bytes, have %d", ErrOutOfMemory, required, available)
		}
	}

	argv, err := BuildArgv(p.ServerID, sc, opt.EffectiveOpt, opt.JavaExecutable)
	if err != nil {
		return fmt.Errorf("build launch command: %w", err)
	}

	build := events.ServerLaunchOptionBuild{ServerID: p.ServerID, Argv: argv}
	p.bus.Publish(build)

	if err := checkTransition(p.state.get(), types.StateStarting); err != nil {
		return err
	}
	p.state.set(types.StateStarting)

	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, build.Argv[0], build.Argv[1:]...)
	cmd.Dir = opt.Directory
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	// New session/process group so Kill can signal every descendant the
	// JVM spawns, not just the immediate child.
	setProcessGroup(cmd)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 100, Rows: 40})
	if err != nil {
		cancel()
		p.state.set(types.StateStopped)
		return fmt.Errorf("start pty: %w", err)
	}

	p.cmd = cmd
	p.ptmx = ptmx
	p.cancel = cancel
	p.started = time.Now()
	p.doneCh = make(chan struct{})

	go p.pumpOutput()
	go p.waitForExit(opt.ShutdownTimeout)

	p.state.set(types.StateStarted)
	return nil
}

// pumpOutput reads the PTY line by line, feeding the console ring buffer
// and publishing ServerProcessRead so the WebSocket fan-out can tail it.
// The first non-empty read also advances STARTED -> RUNNING, since that's
// the earliest reliable signal the JVM is alive and producing output.
func (p *Process) pumpOutput() {
	scanner := bufio.NewScanner(p.ptmx)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		p.ring.push(line)
		p.bus.Publish(events.ServerProcessRead{ServerID: p.ServerID, Line: line})
		if first {
			first = false
			if p.state.get() == types.StateStarted {
				p.state.set(types.StateRunning)
			}
		}
	}
}

// waitForExit blocks until the child exits (from either end) and runs
// the terminal state transition + cleanup exactly once.
func (p *Process) waitForExit(shutdownTimeout time.Duration) {
	err := p.cmd.Wait()
	p.ptmx.Close()

	exitCode := 0
	crashed := false
	if err != nil {
		crashed = true
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	// A graceful stop already moved the state to STOPPING; a crash finds
	// it still RUNNING/STARTED, either is a legal predecessor of STOPPED.
	p.state.set(types.StateStopped)
	p.bus.Publish(events.ServerProcessEnded{ServerID: p.ServerID, ExitCode: exitCode, Crashed: crashed})
	close(p.doneCh)
}

// SendCommand writes a line to the server's PTY stdin, used both for
// player-facing console commands and for the stop command itself.
func (p *Process) SendCommand(line string) error {
	p.mu.Lock()
	ptmx := p.ptmx
	p.mu.Unlock()
	if ptmx == nil {
		return fmt.Errorf("server %s is not running", p.ServerID)
	}
	_, err := io.WriteString(ptmx, line+"\n")
	return err
}

// Resize changes the console PTY's terminal size.
func (p *Process) Resize(cols, rows uint16) error {
	p.mu.Lock()
	ptmx := p.ptmx
	p.mu.Unlock()
	if ptmx == nil {
		return fmt.Errorf("server %s is not running", p.ServerID)
	}
	return pty.Setsize(ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

// Stop sends the configured stop command and waits up to timeout for the
// process to exit on its own, matching the original implementation's
// wait_for_shutdown default of 15s when no per-server timeout is set.
func (p *Process) Stop(stopCommand string, timeout time.Duration) error {
	p.mu.Lock()
	current := p.state.get()
	if current != types.StateStarting && current != types.StateStarted && current != types.StateRunning {
		p.mu.Unlock()
		return fmt.Errorf("server %s: cannot stop from state %s", p.ServerID, current)
	}
	if err := checkTransition(current, types.StateStopping); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state.set(types.StateStopping)
	doneCh := p.doneCh
	p.mu.Unlock()

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if err := p.SendCommand(stopCommand); err != nil {
		return err
	}
	return p.waitForShutdown(doneCh, timeout)
}

func (p *Process) waitForShutdown(doneCh chan struct{}, timeout time.Duration) error {
	select {
	case <-doneCh:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("server %s: did not stop within %s", p.ServerID, timeout)
	}
}

// Kill sends SIGKILL to the entire process group, for when Stop times out
// or an operator wants an immediate halt.
func (p *Process) Kill() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return fmt.Errorf("server %s is not running", p.ServerID)
	}
	return killProcessGroup(cmd.Process.Pid)
}

// Wait blocks until the current run's child process has fully exited.
func (p *Process) Wait() {
	p.mu.Lock()
	ch := p.doneCh
	p.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

// PID returns the child process's pid, or 0 if not running.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// StartedAt returns when the current run began, or the zero time.
func (p *Process) StartedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = sysProcAttrNewGroup()
}

func killProcessGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

// RunBuild runs an installer subprocess to completion, transitioning
// STOPPED -> BUILD -> STOPPED regardless of outcome (spec's builder
// contract: a failed build still leaves the server stopped, not stuck).
// Output lines are appended to the console ring and published exactly
// like game-process output, and also handed to onLine so a caller can
// scrape an installer's log for the jar it produced.
func (p *Process) RunBuild(ctx context.Context, dir string, argv []string, onLine func(line string)) error {
	p.mu.Lock()
	if p.state.get() != types.StateStopped {
		p.mu.Unlock()
		return fmt.Errorf("server %s: cannot build from state %s", p.ServerID, p.state.get())
	}
	if err := checkTransition(p.state.get(), types.StateBuild); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state.set(types.StateBuild)
	p.mu.Unlock()
	defer p.state.set(types.StateStopped)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	setProcessGroup(cmd)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("build pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return fmt.Errorf("start build: %w", err)
	}
	pw.Close()

	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			p.ring.push(line)
			p.bus.Publish(events.ServerProcessRead{ServerID: p.ServerID, Line: line})
			if onLine != nil {
				onLine(line)
			}
		}
	}()

	waitErr := cmd.Wait()
	pr.Close()
	<-scanDone

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	p.bus.Publish(events.ServerProcessEnded{ServerID: p.ServerID, ExitCode: exitCode, Crashed: waitErr != nil})
	return waitErr
}

// EffectiveShutdownTimeout is re-exported for call sites that already
// hold a *config.SwitcherConfig and a server's own override.
var EffectiveShutdownTimeout = config.EffectiveShutdownTimeout
