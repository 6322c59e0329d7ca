package daemon

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// JobState is the lifecycle of one agent job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one agent turn moving through the daemon's queue.
type Job struct {
	ID         string    `json:"id"`
	Persona    string    `json:"persona"`
	Input      string    `json:"input"`
	Source     string    `json:"source,omitempty"` // cli, gateway:<channel>
	State      JobState  `json:"state"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newJobID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
