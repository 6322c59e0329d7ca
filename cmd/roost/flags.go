package main

import "time"

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// ServiceStartFlags configure daemon/gateway start (and run).
type ServiceStartFlags struct {
	Port   int
	Bin    string
	Budget time.Duration
}

// ServiceStopFlags configure daemon/gateway stop.
type ServiceStopFlags struct {
	Wait  time.Duration
	Force bool
}

// ServiceStatusFlags configure status output.
type ServiceStatusFlags struct {
	JSON bool
}

// ServiceLogsFlags configure the logs tail.
type ServiceLogsFlags struct {
	Lines int
}

// UserCreateFlags configure user create.
type UserCreateFlags struct {
	Username string
	Password string
	Roles    []string
}

// UserListFlags configure user list output.
type UserListFlags struct {
	JSON bool
}

// LoginFlags configure login.
type LoginFlags struct {
	Username string
	Password string
}

// PersonaAddFlags configure persona add.
type PersonaAddFlags struct {
	Name   string
	Model  string
	Prompt string
	Tags   []string
}

// PairAddFlags configure pair add.
type PairAddFlags struct {
	Channel string
	Sender  string
	Note    string
}

// SwarmCreateFlags configure swarm create.
type SwarmCreateFlags struct {
	Name        string
	Personas    []string
	Description string
}

// ChannelAddFlags configure channel add.
type ChannelAddFlags struct {
	Name    string
	Kind    string
	Secret  string
	Options []string // key=value pairs
}

// ListFlags configure plain list commands.
type ListFlags struct {
	JSON bool
}

// SkillNewFlags configure skill new.
type SkillNewFlags struct {
	Dir string
}

// SkillGenerateFlags configure skill generate.
type SkillGenerateFlags struct {
	Name   string
	Prompt string
	Dir    string
}

// MarketSearchFlags configure market search.
type MarketSearchFlags struct {
	JSON bool
}

// MarketInstallFlags configure market install.
type MarketInstallFlags struct {
	Dir string
}

// UpdateFlags configure the update check.
type UpdateFlags struct {
	Check bool
	JSON  bool
}
