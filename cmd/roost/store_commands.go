package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roosthq/roost/internal/store"
)

// dataDir resolves the directory the JSON stores live in.
func (c *command) dataDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return cfg.DataDir(), nil
}

// PersonaAdd inserts or replaces a persona.
func (c *command) PersonaAdd(f PersonaAddFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	p := store.Persona{Name: f.Name, Model: f.Model, SystemPrompt: f.Prompt, Tags: f.Tags}
	if err := store.NewPersonaStore(dir).Put(p); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "persona %s saved\n", f.Name)
	return nil
}

// PersonaList prints all personas.
func (c *command) PersonaList(f ListFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	personas, err := store.NewPersonaStore(dir).List()
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, personas)
	}
	if len(personas) == 0 {
		fmt.Fprintln(c.out, "no personas (add one with 'roost persona add')")
		return nil
	}
	for _, p := range personas {
		model := p.Model
		if model == "" {
			model = "default"
		}
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", p.Name, model, strings.Join(p.Tags, ","))
	}
	return nil
}

// PersonaRemove deletes a persona by name.
func (c *command) PersonaRemove(name string) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	if err := store.NewPersonaStore(dir).Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "persona %s removed\n", name)
	return nil
}

// PairAdd approves a sender on a channel.
func (c *command) PairAdd(f PairAddFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	p := store.Pairing{Channel: f.Channel, Sender: f.Sender, Note: f.Note}
	if err := store.NewPairingStore(dir).Add(p); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "paired %s on channel %s\n", f.Sender, f.Channel)
	return nil
}

// PairList prints the allowlist, optionally filtered to one channel.
func (c *command) PairList(channel string, f ListFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	pairings, err := store.NewPairingStore(dir).List(channel)
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, pairings)
	}
	if len(pairings) == 0 {
		fmt.Fprintln(c.out, "no pairings (approve a sender with 'roost pair add')")
		return nil
	}
	for _, p := range pairings {
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", p.Channel, p.Sender, p.Note)
	}
	return nil
}

// PairRemove revokes a sender on a channel.
func (c *command) PairRemove(f PairAddFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	if err := store.NewPairingStore(dir).Remove(f.Channel, f.Sender); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "unpaired %s on channel %s\n", f.Sender, f.Channel)
	return nil
}

// SwarmCreate inserts or replaces a swarm.
func (c *command) SwarmCreate(f SwarmCreateFlags) error {
	if len(f.Personas) == 0 {
		return errors.New("a swarm needs at least one --persona")
	}
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	sw := store.Swarm{Name: f.Name, Personas: f.Personas, Description: f.Description}
	if err := store.NewSwarmStore(dir).Put(sw); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "swarm %s saved (%d personas)\n", f.Name, len(f.Personas))
	return nil
}

// SwarmList prints all swarms.
func (c *command) SwarmList(f ListFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	swarms, err := store.NewSwarmStore(dir).List()
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, swarms)
	}
	if len(swarms) == 0 {
		fmt.Fprintln(c.out, "no swarms (create one with 'roost swarm create')")
		return nil
	}
	for _, sw := range swarms {
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", sw.Name, strings.Join(sw.Personas, ","), sw.Description)
	}
	return nil
}

// SwarmDelete deletes a swarm by name.
func (c *command) SwarmDelete(name string) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	if err := store.NewSwarmStore(dir).Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "swarm %s removed\n", name)
	return nil
}

// ChannelAdd registers a gateway channel.
func (c *command) ChannelAdd(f ChannelAddFlags) error {
	opts, err := parseOptions(f.Options)
	if err != nil {
		return err
	}
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	ch := store.Channel{Name: f.Name, Kind: f.Kind, Secret: f.Secret, Options: opts}
	if err := store.NewChannelStore(dir).Add(ch); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "channel %s (%s) added\n", f.Name, f.Kind)
	return nil
}

// ChannelList prints all channels. The human listing never shows
// secrets; --json does, since the store file is the operator's own.
func (c *command) ChannelList(f ListFlags) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	channels, err := store.NewChannelStore(dir).List()
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, channels)
	}
	if len(channels) == 0 {
		fmt.Fprintln(c.out, "no channels (add one with 'roost channel add')")
		return nil
	}
	for _, ch := range channels {
		secret := "-"
		if ch.Secret != "" {
			secret = "set"
		}
		fmt.Fprintf(c.out, "%s\t%s\tsecret:%s\toptions:%d\n", ch.Name, ch.Kind, secret, len(ch.Options))
	}
	return nil
}

// ChannelRemove deletes a channel by name.
func (c *command) ChannelRemove(name string) error {
	dir, err := c.dataDir()
	if err != nil {
		return err
	}
	if err := store.NewChannelStore(dir).Remove(name); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "channel %s removed\n", name)
	return nil
}

// parseOptions turns repeated key=value flags into a map.
func parseOptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid option %q (want key=value)", kv)
		}
		opts[k] = v
	}
	return opts, nil
}
