package service

import "time"

// Record is the persisted state of one supervised service, written
// after a successful launch and consulted by every later command.
// One JSON file per service under the registry directory.
type Record struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version,omitempty"`
	WorkDir   string    `json:"work_dir,omitempty"`
	LogFile   string    `json:"log_file,omitempty"`
}

// Status is the observed state of one service, combining the OS-level
// process check with the HTTP readiness probe. The two stay separate:
// a live PID with a failing probe is "running, not ready".
type Status struct {
	Service   string    `json:"service"`
	Running   bool      `json:"running"`
	Healthy   bool      `json:"healthy"`
	PID       int       `json:"pid,omitempty"`
	Port      int       `json:"port,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime,omitempty"`
	Version   string    `json:"version,omitempty"`
	LogFile   string    `json:"log_file,omitempty"`
}
