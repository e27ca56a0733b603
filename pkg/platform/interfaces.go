package platform

import (
	"os"
	"syscall"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Platform provides a unified interface for all platform-specific operations
// the launcher performs: environment access, process spawning, signal
// subscription, and process(-group) signalling.
//
//counterfeiter:generate . Platform
type Platform interface {
	EnvOperations
	ProcessOperations
	SignalOperations
}

// EnvOperations defines environment access
//
//counterfeiter:generate . EnvOperations
type EnvOperations interface {
	Environ() []string
	Getenv(key string) string
	Hostname() (string, error)
}

// ProcessOperations defines process spawning and signalling
//
//counterfeiter:generate . ProcessOperations
type ProcessOperations interface {
	LookPath(file string) (string, error)
	CreateCommand(name string, args ...string) Command
	CreateProcessGroup() *syscall.SysProcAttr

	// Kill delivers a signal; a negative pid targets the process group
	Kill(pid int, sig syscall.Signal) error
	Getpid() int
}

// SignalOperations defines subscription to signals delivered to the launcher
//
//counterfeiter:generate . SignalOperations
type SignalOperations interface {
	NotifySignals(c chan<- os.Signal, sigs ...os.Signal)
	StopSignals(c chan<- os.Signal)
}

// Command represents a spawned workload command
//
//counterfeiter:generate . Command
type Command interface {
	Start() error
	Wait() error
	Process() Process
	SetStdout(w interface{})
	SetStderr(w interface{})
	SetStdin(w interface{})
	SetSysProcAttr(attr *syscall.SysProcAttr)
	SetEnv(env []string)
}

// Process represents a running workload process
//
//counterfeiter:generate . Process
type Process interface {
	Pid() int
}
