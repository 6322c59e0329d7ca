package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

// Persona is one named agent personality the daemon can run jobs as.
type Persona struct {
	Name         string    `json:"name"`
	Model        string    `json:"model,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Pairing is one allowlist entry: a sender approved to reach the agent
// through a channel.
type Pairing struct {
	Channel string    `json:"channel"`
	Sender  string    `json:"sender"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Swarm is a named set of personas addressed as one unit.
type Swarm struct {
	Name        string    `json:"name"`
	Personas    []string  `json:"personas"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Channel is a configured message entry point on the gateway.
type Channel struct {
	Name      string            `json:"name"`
	Kind      string            `json:"kind"` // telegram, discord, slack, web
	Secret    string            `json:"secret,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
