package store

import (
	"fmt"
	"path/filepath"
	"time"
)

// SwarmStore keeps swarms in swarms.json. Persona names inside a swarm
// are not validated against the persona store.
type SwarmStore struct {
	path string
}

func NewSwarmStore(dir string) *SwarmStore {
	return &SwarmStore{path: filepath.Join(dir, "swarms.json")}
}

func (s *SwarmStore) Put(sw Swarm) error {
	var list []Swarm
	if err := readList(s.path, &list); err != nil {
		return err
	}
	now := time.Now().UTC()
	sw.UpdatedAt = now
	for i := range list {
		if list[i].Name == sw.Name {
			sw.CreatedAt = list[i].CreatedAt
			list[i] = sw
			return writeList(s.path, list)
		}
	}
	sw.CreatedAt = now
	list = append(list, sw)
	return writeList(s.path, list)
}

func (s *SwarmStore) Get(name string) (Swarm, error) {
	var list []Swarm
	if err := readList(s.path, &list); err != nil {
		return Swarm{}, err
	}
	for _, sw := range list {
		if sw.Name == name {
			return sw, nil
		}
	}
	return Swarm{}, fmt.Errorf("swarm %q: %w", name, ErrNotFound)
}

func (s *SwarmStore) List() ([]Swarm, error) {
	var list []Swarm
	if err := readList(s.path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SwarmStore) Delete(name string) error {
	var list []Swarm
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for i := range list {
		if list[i].Name == name {
			list = append(list[:i], list[i+1:]...)
			return writeList(s.path, list)
		}
	}
	return fmt.Errorf("swarm %q: %w", name, ErrNotFound)
}
