//go:build !windows

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultHealthTimeout bounds a single HTTP health request.
const DefaultHealthTimeout = 3 * time.Second

// PIDAlive reports whether a process with the given pid exists, using
// signal 0. EPERM means the process exists but belongs to another user,
// which still counts as alive; ESRCH or anything else does not.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// ProcessRunning combines the signal-0 probe with a zombie check: an
// exited child that nobody reaped yet still answers signal 0 but is not
// a running service.
func ProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	if runtime.GOOS == "linux" {
		if isZombie(pid) {
			return false
		}
		return PIDAlive(pid)
	}
	// Non-Linux: services run as session leaders, so probe the whole
	// group; a group with no live members answers ESRCH even while an
	// unreaped zombie lingers.
	err := syscall.Kill(-pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// isZombie returns true if /proc/<pid>/status reports state Z on Linux.
func isZombie(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}

// Probe reports whether a service is ready to serve. Probes never
// return errors: an unreachable or unready service is false, and the
// caller decides how long to keep asking.
type Probe func(ctx context.Context) bool

// HTTPProbe returns a Probe that issues GET url and requires a 2xx
// response. When statusField is non-empty the body must be JSON with
// that field equal to want (the agent daemon reports status "healthy",
// the gateway "ok"). The body is never schema-validated: its remaining
// fields are an unversioned contract owned by the service.
func HTTPProbe(client *http.Client, url, statusField, want string) Probe {
	if client == nil {
		client = &http.Client{Timeout: DefaultHealthTimeout}
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return false
		}
		if statusField == "" {
			return true
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return false
		}
		return gjson.GetBytes(body, statusField).String() == want
	}
}

// LocalHealthURL builds the loopback health URL for a service port.
func LocalHealthURL(port int) string {
	return "http://127.0.0.1:" + strconv.Itoa(port) + "/health"
}
