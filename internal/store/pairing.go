package store

import (
	"fmt"
	"path/filepath"
	"time"
)

// PairingStore keeps the sender allowlist in pairing.json. The gateway
// consults it on every inbound message; an unknown channel+sender pair
// is rejected before anything reaches the daemon.
type PairingStore struct {
	path string
}

func NewPairingStore(dir string) *PairingStore {
	return &PairingStore{path: filepath.Join(dir, "pairing.json")}
}

// Add approves a sender on a channel. Adding an existing pair is an
// ErrExists so a typo in the channel name surfaces instead of silently
// duplicating.
func (s *PairingStore) Add(p Pairing) error {
	var list []Pairing
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for _, e := range list {
		if e.Channel == p.Channel && e.Sender == p.Sender {
			return fmt.Errorf("pairing %s/%s: %w", p.Channel, p.Sender, ErrExists)
		}
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now().UTC()
	}
	list = append(list, p)
	return writeList(s.path, list)
}

func (s *PairingStore) Remove(channel, sender string) error {
	var list []Pairing
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for i, e := range list {
		if e.Channel == channel && e.Sender == sender {
			list = append(list[:i], list[i+1:]...)
			return writeList(s.path, list)
		}
	}
	return fmt.Errorf("pairing %s/%s: %w", channel, sender, ErrNotFound)
}

// Allowed reports whether the sender is approved for the channel. Any
// read failure counts as not allowed.
func (s *PairingStore) Allowed(channel, sender string) bool {
	var list []Pairing
	if err := readList(s.path, &list); err != nil {
		return false
	}
	for _, e := range list {
		if e.Channel == channel && e.Sender == sender {
			return true
		}
	}
	return false
}

// List returns entries, filtered to one channel when channel is non-empty.
func (s *PairingStore) List(channel string) ([]Pairing, error) {
	var list []Pairing
	if err := readList(s.path, &list); err != nil {
		return nil, err
	}
	if channel == "" {
		return list, nil
	}
	var out []Pairing
	for _, e := range list {
		if e.Channel == channel {
			out = append(out, e)
		}
	}
	return out, nil
}
