package store

import (
	"fmt"
	"path/filepath"
	"time"
)

// ChannelStore keeps gateway channels in channels.json.
type ChannelStore struct {
	path string
}

func NewChannelStore(dir string) *ChannelStore {
	return &ChannelStore{path: filepath.Join(dir, "channels.json")}
}

func (s *ChannelStore) Add(ch Channel) error {
	var list []Channel
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for _, e := range list {
		if e.Name == ch.Name {
			return fmt.Errorf("channel %q: %w", ch.Name, ErrExists)
		}
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}
	list = append(list, ch)
	return writeList(s.path, list)
}

func (s *ChannelStore) Get(name string) (Channel, error) {
	var list []Channel
	if err := readList(s.path, &list); err != nil {
		return Channel{}, err
	}
	for _, ch := range list {
		if ch.Name == name {
			return ch, nil
		}
	}
	return Channel{}, fmt.Errorf("channel %q: %w", name, ErrNotFound)
}

func (s *ChannelStore) List() ([]Channel, error) {
	var list []Channel
	if err := readList(s.path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChannelStore) Remove(name string) error {
	var list []Channel
	if err := readList(s.path, &list); err != nil {
		return err
	}
	for i := range list {
		if list[i].Name == name {
			list = append(list[:i], list[i+1:]...)
			return writeList(s.path, list)
		}
	}
	return fmt.Errorf("channel %q: %w", name, ErrNotFound)
}
