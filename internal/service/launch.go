package service

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// ErrExecutableNotFound means the configured service binary does not
// exist on disk. Nothing was spawned; commands treat it as fatal.
var ErrExecutableNotFound = errors.New("service executable not found")

// LaunchSpec describes one detached service launch.
type LaunchSpec struct {
	Service string   // registry name, e.g. "agentd" or "gateway"
	Bin     string   // path to the executable
	Args    []string // argv without the program name
	Env     []string // extra K=V entries layered over the parent env
	WorkDir string   // optional working directory
	LogFile string   // stdout+stderr destination, append mode
}

// LaunchDetached starts the service in its own session with stdout and
// stderr appended to the log file and returns the child PID. The child
// is never waited on: after the caller records the PID, ownership
// passes to the OS and the parent is free to exit. A spawn failure
// comes back as the OS error untouched, so the user sees exactly what
// the kernel said.
func LaunchDetached(spec LaunchSpec) (int, error) {
	if _, err := os.Stat(spec.Bin); err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrExecutableNotFound, spec.Bin)
		}
		return 0, err
	}

	if dir := filepath.Dir(spec.LogFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, err
		}
	}
	// Stdio needs a real file descriptor to survive the parent, so this
	// is a plain file handle rather than a rotating writer.
	logFile, err := os.OpenFile(spec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() { _ = logFile.Close() }()

	// ok: intentional execution of the configured service binary
	// #nosec G204
	cmd := exec.Command(spec.Bin, spec.Args...)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	cmd.Env = MergeEnv(spec.Env)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	// New session: the child is its own session and process group
	// leader and keeps running after the CLI exits.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// This parent will not reap the child.
	_ = cmd.Process.Release()
	return pid, nil
}

// SelfExecutable resolves the running binary for single-binary re-exec
// launches ("roost daemon start" spawning "roost daemon run").
func SelfExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve own executable: %w", err)
	}
	return exe, nil
}
