package store

import (
	"fmt"
	"path/filepath"
	"time"
)

// PersonaStore keeps personas in personas.json under the data directory.
type PersonaStore struct {
	path string
}

func NewPersonaStore(dir string) *PersonaStore {
	return &PersonaStore{path: filepath.Join(dir, "personas.json")}
}

// Put inserts or replaces a persona by name. CreatedAt survives an
// update; UpdatedAt always moves.
func (s *PersonaStore) Put(p Persona) error {
	var list []Persona
	if err := readList(s.path, &list); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.UpdatedAt = now
	for i := range list {
		if list[i].Name == p.Name {
			p.CreatedAt = list[i].CreatedAt
			list[i] = p
			return writeList(s.path, list)
		}
	}
	p.CreatedAt = now
	list = append(list, p)
	return writeList(s.path, list)
}

func (s *PersonaStore) Get(name string) (Persona, error) {
	var list []Persona
	if err := readList(s.path, &list); err != nil {
		return Persona{}, err
	}
	for _, p := range list {
		if p.Name == name {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("persona %q: %w", name, ErrNotFound)
}

func (s *PersonaStore) List() ([]Persona, error) {
	var list []Persona
	if err := readList(s.path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *PersonaStore) Delete(name string) error {
	var list []Persona
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for i := range list {
		if list[i].Name == name {
			list = append(list[:i], list[i+1:]...)
			return writeList(s.path, list)
		}
	}
	return fmt.Errorf("persona %q: %w", name, ErrNotFound)
}
