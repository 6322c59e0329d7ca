package client

import "time"

// Token is a bearer token minted by the daemon's login endpoint.
type Token struct {
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles,omitempty"`
}

// Workers reports worker pool occupancy.
type Workers struct {
	Total int `json:"total"`
	Busy  int `json:"busy"`
}

// Queue reports job queue occupancy.
type Queue struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
}

// Memory reports process memory usage.
type Memory struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
}

// Health is the daemon's unauthenticated health report.
type Health struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Workers       Workers `json:"workers"`
	Queue         Queue   `json:"queue"`
	Memory        Memory  `json:"memory"`
}

// Status is the daemon's authenticated status report.
type Status struct {
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	PID           int     `json:"pid"`
	Port          int     `json:"port"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Workers       Workers `json:"workers"`
	Queue         Queue   `json:"queue"`
	Personas      int     `json:"personas"`
}

// SubmitJobRequest asks the daemon to run one agent turn.
type SubmitJobRequest struct {
	Persona string `json:"persona"`
	Input   string `json:"input"`
	Source  string `json:"source,omitempty"`
}

// Job mirrors the daemon's job resource.
type Job struct {
	ID         string    `json:"id"`
	Persona    string    `json:"persona"`
	Input      string    `json:"input"`
	Source     string    `json:"source,omitempty"`
	State      string    `json:"state"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Settled reports whether the job reached a terminal state.
func (j Job) Settled() bool { return j.State == "done" || j.State == "failed" }

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
