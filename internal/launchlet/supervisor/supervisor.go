// Package supervisor spawns the workload and owns it until it exits. It
// forwards termination signals delivered to the launcher (time-limit
// expiry, operator cancellation) to the workload's process group and never
// reports completion before the child has genuinely exited, so deallocated
// resources are never left running orphaned work.
package supervisor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// State is the supervised process lifecycle state
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSignalForwarded
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSignalForwarded:
		return "signal-forwarded"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Spec describes the workload to spawn
type Spec struct {
	Command string
	Args    []string
	Env     []string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Supervisor runs one workload per instance:
// Idle -> Running -> {SignalForwarded -> Exited, Exited}
type Supervisor struct {
	platform platform.Platform
	logger   *logger.Logger

	mu    sync.Mutex
	state State
	trace []State
}

// New creates a supervisor in the Idle state
func New(p platform.Platform, log *logger.Logger) *Supervisor {
	return &Supervisor{
		platform: p,
		logger:   log.WithField("component", "supervisor"),
		state:    StateIdle,
		trace:    []State{StateIdle},
	}
}

// State returns the current lifecycle state
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trace returns the sequence of states entered so far
func (s *Supervisor) Trace() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.trace))
	copy(out, s.trace)
	return out
}

func (s *Supervisor) transition(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == next {
		return
	}
	s.state = next
	s.trace = append(s.trace, next)
}

// Run spawns the workload and blocks until it has exited, forwarding
// SIGINT/SIGTERM to its process group in the meantime. The returned code
// is the child's real exit code, or 128+signo when the child was killed by
// a signal. Spawn failures return ErrSpawnFailure immediately, no retry: a
// partially started multi-host job must be retried by the operator or the
// scheduler, not by this launcher.
func (s *Supervisor) Run(ctx context.Context, spec *Spec) (int, error) {
	path, err := s.resolve(spec.Command)
	if err != nil {
		return 0, launcherrors.WrapSpawnError(spec.Command, err)
	}

	cmd := s.platform.CreateCommand(path, spec.Args...)
	cmd.SetEnv(spec.Env)
	cmd.SetSysProcAttr(s.platform.CreateProcessGroup())

	stdout := spec.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := spec.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)

	// Subscribe before spawning so a signal racing the spawn is queued
	// rather than taking the launcher down with the default disposition.
	sigCh := make(chan os.Signal, 2)
	s.platform.NotifySignals(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer s.platform.StopSignals(sigCh)

	if err := cmd.Start(); err != nil {
		return 0, launcherrors.WrapSpawnError(spec.Command, err)
	}

	pid := cmd.Process().Pid()
	s.transition(StateRunning)
	s.logger.Info("workload started", "command", path, "pid", pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigCh:
			s.transition(StateSignalForwarded)
			s.forward(pid, sig)

		case <-ctxDone:
			ctxDone = nil
			s.transition(StateSignalForwarded)
			s.forward(pid, syscall.SIGTERM)

		case waitErr := <-done:
			code := s.exitCode(waitErr)
			s.transition(StateExited)
			s.logger.Info("workload exited", "pid", pid, "code", code)
			return code, nil
		}
	}
}

// forward delivers the signal to the child's process group; falling back
// to the child itself if the group kill is refused.
func (s *Supervisor) forward(pid int, sig os.Signal) {
	signo, ok := sig.(syscall.Signal)
	if !ok {
		signo = syscall.SIGTERM
	}

	s.logger.Info("forwarding signal to workload", "signal", signo.String(), "pid", pid)

	if err := s.platform.Kill(-pid, signo); err != nil {
		s.logger.Warn("process group signal failed, signalling process directly",
			"pid", pid, "error", err)
		if err := s.platform.Kill(pid, signo); err != nil {
			s.logger.Error("failed to forward signal", "pid", pid, "error", err)
		}
	}
}

// exitCode translates the wait outcome into the launcher's exit code,
// synthesizing 128+signo for a signal-killed child per shell convention.
func (s *Supervisor) exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}

	s.logger.Error("wait failed without exit status", "error", waitErr)
	return launcherrors.ExitFailure
}

// resolve looks the command up on PATH unless it is already a path
func (s *Supervisor) resolve(command string) (string, error) {
	if command == "" {
		return "", errors.New("no command given")
	}
	if strings.ContainsRune(command, '/') {
		return command, nil
	}
	return s.platform.LookPath(command)
}
