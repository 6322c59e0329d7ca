package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/metrics"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func main() {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot assembles the full command tree.
func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	c := newCommand(global)

	root := createRootCommand(global)
	root.AddCommand(
		createServiceCommand(c, "daemon", config.ServiceDaemon),
		createServiceCommand(c, "gateway", config.ServiceGateway),
		createUpCommand(c),
		createDownCommand(c),
		createStatusCommand(c),
		createInitCommand(c),
		createUserCommand(c),
		createLoginCommand(c),
		createLogoutCommand(c),
		createWhoamiCommand(c),
		createPersonaCommand(c),
		createPairCommand(c),
		createSwarmCommand(c),
		createChannelCommand(c),
		createSkillCommand(c),
		createMarketCommand(c),
		createUpdateCommand(c),
	)
	return root
}

// createRootCommand creates the root command with the persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:     "roost",
		Short:   "Local node CLI for the Roost agent platform",
		Version: version,
		Long: `Roost runs a local node of the agent platform: the agent daemon
(agentd) executes persona jobs and the gateway accepts channel
messages. The CLI supervises both services and manages the node's
personas, pairings, swarms, channels and skills.

Examples:
  roost init mynode                 # Scaffold a workspace
  roost up                          # Start daemon and gateway
  roost status                      # Check both services
  roost login --username=admin --password=secret
  roost skill new summarizer`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (default ~/.roost/config.toml)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging on stderr")

	return root
}

// serviceTitle spells out what a service noun actually is.
func serviceTitle(noun string) string {
	if noun == "daemon" {
		return "agent daemon (agentd)"
	}
	return "channel gateway"
}

// createServiceCommand builds the start/stop/status/logs/run group for
// one managed service. The daemon and gateway groups are identical
// apart from the service they drive.
func createServiceCommand(c *command, noun, service string) *cobra.Command {
	group := &cobra.Command{
		Use:   noun,
		Short: "Manage the " + serviceTitle(noun),
	}
	group.AddCommand(
		createServiceStartCommand(c, noun, service),
		createServiceStopCommand(c, noun, service),
		createServiceStatusCommand(c, noun, service),
		createServiceLogsCommand(c, noun, service),
		createServiceRunCommand(c, noun, service),
	)
	return group
}

// createServiceStartCommand creates the start subcommand of a service group
func createServiceStartCommand(c *command, noun, service string) *cobra.Command {
	f := &ServiceStartFlags{}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the " + serviceTitle(noun) + " detached",
		Long: fmt.Sprintf(`Launch the %s in its own session, record its PID under
the run directory, and poll its /health endpoint until it answers or
the budget runs out. A live instance is never started twice; a record
left behind by a dead process is cleaned up silently.

The command exits 0 once the process is launched, even if it is not
ready yet - readiness trouble is a warning with a pointer to the log.

Examples:
  roost %[2]s start
  roost %[2]s start --port=19000 --budget=30s
  roost %[2]s start --bin=/opt/roost/bin/roost`, serviceTitle(noun), noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.startService(service, *f)
		},
	}
	cmd.Flags().IntVar(&f.Port, "port", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&f.Bin, "bin", "", "service executable (default: re-execute this binary)")
	cmd.Flags().DurationVar(&f.Budget, "budget", 0, "readiness wait budget (default from config, 15s)")
	return cmd
}

// createServiceStopCommand creates the stop subcommand of a service group
func createServiceStopCommand(c *command, noun, service string) *cobra.Command {
	f := &ServiceStopFlags{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the " + serviceTitle(noun),
		Long: fmt.Sprintf(`Send SIGTERM to the recorded %s process group, wait up to --wait for
it to exit, then escalate to SIGKILL. Stopping a service that is not
running succeeds quietly: the goal state already holds.

Examples:
  roost %[1]s stop
  roost %[1]s stop --wait=10s
  roost %[1]s stop --force`, noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.stopService(service, *f)
		},
	}
	cmd.Flags().DurationVar(&f.Wait, "wait", 0, "grace period before SIGKILL (default from config, 5s)")
	cmd.Flags().BoolVar(&f.Force, "force", false, "skip SIGTERM and kill immediately")
	return cmd
}

// createServiceStatusCommand creates the status subcommand of a service group
func createServiceStatusCommand(c *command, noun, service string) *cobra.Command {
	f := &ServiceStatusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show " + noun + " status",
		Long: fmt.Sprintf(`Report the %s's recorded PID, the OS-level liveness check and the
HTTP readiness probe. The two checks stay separate: a live process
with a failing probe is "running, not ready".

Examples:
  roost %[1]s status
  roost %[1]s status --json`, noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.statusService(service, *f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createServiceLogsCommand creates the logs subcommand of a service group
func createServiceLogsCommand(c *command, noun, service string) *cobra.Command {
	f := &ServiceLogsFlags{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the " + noun + " log",
		Long: fmt.Sprintf(`Print the last lines of the %s's stdio capture file. This is the
file detached launches append to, distinct from the structured log the
service writes itself.

Examples:
  roost %[1]s logs
  roost %[1]s logs --lines=200`, noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.logsService(service, *f)
		},
	}
	cmd.Flags().IntVar(&f.Lines, "lines", 40, "number of lines to print")
	return cmd
}

// createServiceRunCommand creates the run subcommand of a service group
func createServiceRunCommand(c *command, noun, service string) *cobra.Command {
	f := &ServiceStartFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the " + serviceTitle(noun) + " in the foreground",
		Long: fmt.Sprintf(`Run the %s in the foreground until SIGINT or SIGTERM. This is the
process 'roost %[2]s start' launches detached; run it directly under
systemd or in a terminal for debugging.

Examples:
  roost %[2]s run
  roost %[2]s run --port=19000`, serviceTitle(noun), noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			if service == config.ServiceDaemon {
				return c.runDaemon(*f)
			}
			return c.runGateway(*f)
		},
	}
	cmd.Flags().IntVar(&f.Port, "port", 0, "listen port (default from config)")
	return cmd
}

// createUpCommand creates the up command
func createUpCommand(c *command) *cobra.Command {
	f := &ServiceStartFlags{}
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the agent daemon and the gateway",
		Long: `Bring the whole node up: the agent daemon first, then the gateway
that forwards into it. Ports come from config; equivalent to
'roost daemon start' followed by 'roost gateway start'.

Examples:
  roost up
  roost up --budget=30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Up(*f)
		},
	}
	cmd.Flags().DurationVar(&f.Budget, "budget", 0, "readiness wait budget per service (default from config)")
	return cmd
}

// createDownCommand creates the down command
func createDownCommand(c *command) *cobra.Command {
	f := &ServiceStopFlags{}
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the gateway and the agent daemon",
		Long: `Bring the whole node down: the gateway first so nothing keeps
forwarding, then the agent daemon.

Examples:
  roost down
  roost down --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Down(*f)
		},
	}
	cmd.Flags().DurationVar(&f.Wait, "wait", 0, "grace period before SIGKILL (default from config)")
	cmd.Flags().BoolVar(&f.Force, "force", false, "skip SIGTERM and kill immediately")
	return cmd
}

// createStatusCommand creates the status command for both services
func createStatusCommand(c *command) *cobra.Command {
	f := &ServiceStatusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of both services",
		Long: `Report the agent daemon and the gateway: recorded PID, OS-level
liveness, HTTP readiness.

Examples:
  roost status
  roost status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.StatusAll(*f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createInitCommand creates the init command
func createInitCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a node workspace",
		Args:  cobra.MaximumNArgs(1),
		Long: `Create a workspace directory with a roost.toml, the data, skills,
run and log directories, and a default persona.

Examples:
  roost init
  roost init mynode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return c.InitWorkspace(dir)
		},
	}
	return cmd
}

// createUserCommand creates the user command group
func createUserCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "user",
		Short: "Manage daemon user accounts",
	}
	group.AddCommand(
		createUserCreateCommand(c),
		createUserListCommand(c),
		createUserDeleteCommand(c),
	)
	return group
}

// createUserCreateCommand creates the user create subcommand
func createUserCreateCommand(c *command) *cobra.Command {
	f := &UserCreateFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a user in the daemon's store. This works directly against
the store, so the daemon does not need to be running.

Examples:
  roost user create --username=admin --password=secret --roles=admin
  roost user create --username=alice --password=hunter2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.UserCreate(*f)
		},
	}
	cmd.Flags().StringVar(&f.Username, "username", "", "username (required)")
	cmd.Flags().StringVar(&f.Password, "password", "", "password (required)")
	cmd.Flags().StringSliceVar(&f.Roles, "roles", []string{"user"}, "roles granted to the user")

	if err := cmd.MarkFlagRequired("username"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("password"); err != nil {
		panic(err)
	}
	return cmd
}

// createUserListCommand creates the user list subcommand
func createUserListCommand(c *command) *cobra.Command {
	f := &UserListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.UserList(*f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createUserDeleteCommand creates the user delete subcommand
func createUserDeleteCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.UserDelete(args[0])
		},
	}
	return cmd
}

// createLoginCommand creates the login command
func createLoginCommand(c *command) *cobra.Command {
	f := &LoginFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the local agent daemon",
		Long: `Exchange credentials for a bearer token at the daemon's auth API
and save the session under the roost home. Later commands reuse the
session until it expires.

Examples:
  roost login --username=admin --password=secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Login(*f)
		},
	}
	cmd.Flags().StringVar(&f.Username, "username", "", "username (required)")
	cmd.Flags().StringVar(&f.Password, "password", "", "password (required)")

	if err := cmd.MarkFlagRequired("username"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("password"); err != nil {
		panic(err)
	}
	return cmd
}

// createLogoutCommand creates the logout command
func createLogoutCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logout()
		},
	}
}

// createWhoamiCommand creates the whoami command
func createWhoamiCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Whoami()
		},
	}
}

// createPersonaCommand creates the persona command group
func createPersonaCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "persona",
		Short: "Manage agent personas",
	}
	group.AddCommand(
		createPersonaAddCommand(c),
		createPersonaListCommand(c),
		createPersonaRemoveCommand(c),
	)
	return group
}

// createPersonaAddCommand creates the persona add subcommand
func createPersonaAddCommand(c *command) *cobra.Command {
	f := &PersonaAddFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a persona",
		Long: `Add a persona, or replace it when the name already exists. Jobs
submitted without a persona run as "default".

Examples:
  roost persona add --name=concierge --prompt="You greet guests."
  roost persona add --name=researcher --model=large --tags=work,search`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PersonaAdd(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "persona name (required)")
	cmd.Flags().StringVar(&f.Model, "model", "", "model the persona runs on")
	cmd.Flags().StringVar(&f.Prompt, "prompt", "", "system prompt")
	cmd.Flags().StringSliceVar(&f.Tags, "tags", nil, "free-form tags")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createPersonaListCommand creates the persona list subcommand
func createPersonaListCommand(c *command) *cobra.Command {
	f := &ListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PersonaList(*f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createPersonaRemoveCommand creates the persona remove subcommand
func createPersonaRemoveCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PersonaRemove(args[0])
		},
	}
	return cmd
}

// createPairCommand creates the pair command group
func createPairCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "pair",
		Short: "Manage the sender allowlist",
	}
	group.AddCommand(
		createPairAddCommand(c),
		createPairListCommand(c),
		createPairRemoveCommand(c),
	)
	return group
}

// createPairAddCommand creates the pair add subcommand
func createPairAddCommand(c *command) *cobra.Command {
	f := &PairAddFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Approve a sender on a channel",
		Long: `Approve a sender for a channel. The gateway rejects inbound
messages from senders that are not paired.

Examples:
  roost pair add --channel=tg-main --sender=4711
  roost pair add --channel=web --sender=alice@example.com --note="founder"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PairAdd(*f)
		},
	}
	cmd.Flags().StringVar(&f.Channel, "channel", "", "channel name (required)")
	cmd.Flags().StringVar(&f.Sender, "sender", "", "sender id (required)")
	cmd.Flags().StringVar(&f.Note, "note", "", "free-form note")

	if err := cmd.MarkFlagRequired("channel"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("sender"); err != nil {
		panic(err)
	}
	return cmd
}

// createPairListCommand creates the pair list subcommand
func createPairListCommand(c *command) *cobra.Command {
	f := &ListFlags{}
	var channel string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved senders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PairList(channel, *f)
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "only this channel")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createPairRemoveCommand creates the pair remove subcommand
func createPairRemoveCommand(c *command) *cobra.Command {
	f := &PairAddFlags{}
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Revoke a sender on a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.PairRemove(*f)
		},
	}
	cmd.Flags().StringVar(&f.Channel, "channel", "", "channel name (required)")
	cmd.Flags().StringVar(&f.Sender, "sender", "", "sender id (required)")

	if err := cmd.MarkFlagRequired("channel"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("sender"); err != nil {
		panic(err)
	}
	return cmd
}

// createSwarmCommand creates the swarm command group
func createSwarmCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "swarm",
		Short: "Manage persona swarms",
	}
	group.AddCommand(
		createSwarmCreateCommand(c),
		createSwarmListCommand(c),
		createSwarmDeleteCommand(c),
	)
	return group
}

// createSwarmCreateCommand creates the swarm create subcommand
func createSwarmCreateCommand(c *command) *cobra.Command {
	f := &SwarmCreateFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or update a swarm",
		Long: `Create a named set of personas addressed as one unit, or replace
it when the name already exists.

Examples:
  roost swarm create --name=support --persona=concierge --persona=researcher
  roost swarm create --name=ops --persona=sre --description="on-call helpers"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SwarmCreate(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "swarm name (required)")
	cmd.Flags().StringSliceVar(&f.Personas, "persona", nil, "member persona (repeatable)")
	cmd.Flags().StringVar(&f.Description, "description", "", "what the swarm is for")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createSwarmListCommand creates the swarm list subcommand
func createSwarmListCommand(c *command) *cobra.Command {
	f := &ListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List swarms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SwarmList(*f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createSwarmDeleteCommand creates the swarm delete subcommand
func createSwarmDeleteCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a swarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SwarmDelete(args[0])
		},
	}
	return cmd
}

// createChannelCommand creates the channel command group
func createChannelCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "channel",
		Short: "Manage gateway channels",
	}
	group.AddCommand(
		createChannelAddCommand(c),
		createChannelListCommand(c),
		createChannelRemoveCommand(c),
	)
	return group
}

// createChannelAddCommand creates the channel add subcommand
func createChannelAddCommand(c *command) *cobra.Command {
	f := &ChannelAddFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a gateway channel",
		Long: `Register a message entry point on the gateway. A secret, when set,
must accompany every inbound webhook call; options are free-form
key=value pairs ("persona" picks the default persona for the channel).

Examples:
  roost channel add --name=tg-main --kind=telegram --secret=s3cret
  roost channel add --name=web --kind=web --option=persona=concierge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ChannelAdd(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "channel name (required)")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "channel kind: telegram, discord, slack, web (required)")
	cmd.Flags().StringVar(&f.Secret, "secret", "", "shared webhook secret")
	cmd.Flags().StringArrayVar(&f.Options, "option", nil, "key=value option (repeatable)")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("kind"); err != nil {
		panic(err)
	}
	return cmd
}

// createChannelListCommand creates the channel list subcommand
func createChannelListCommand(c *command) *cobra.Command {
	f := &ListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ChannelList(*f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createChannelRemoveCommand creates the channel remove subcommand
func createChannelRemoveCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ChannelRemove(args[0])
		},
	}
	return cmd
}

// createSkillCommand creates the skill command group
func createSkillCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "skill",
		Short: "Scaffold, validate and generate skills",
	}
	group.AddCommand(
		createSkillNewCommand(c),
		createSkillValidateCommand(c),
		createSkillGenerateCommand(c),
	)
	return group
}

// createSkillNewCommand creates the skill new subcommand
func createSkillNewCommand(c *command) *cobra.Command {
	f := &SkillNewFlags{}
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a skill directory",
		Args:  cobra.ExactArgs(1),
		Long: `Create a skill directory with a skill.yaml manifest, an entry file
stub and a README. Names are lowercase letters, digits and dashes.

Examples:
  roost skill new summarizer
  roost skill new summarizer --dir=skills`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SkillNew(args[0], *f)
		},
	}
	cmd.Flags().StringVar(&f.Dir, "dir", ".", "parent directory for the skill")
	return cmd
}

// createSkillValidateCommand creates the skill validate subcommand
func createSkillValidateCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate a skill manifest",
		Args:  cobra.MaximumNArgs(1),
		Long: `Check the skill.yaml in a skill directory against the manifest
schema and list every issue.

Examples:
  roost skill validate skills/summarizer
  roost skill validate            # the current directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return c.SkillValidate(dir)
		},
	}
	return cmd
}

// createSkillGenerateCommand creates the skill generate subcommand
func createSkillGenerateCommand(c *command) *cobra.Command {
	f := &SkillGenerateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a skill from a prompt",
		Long: `Ask the hosted platform API to write a skill from a prompt and
materialize the returned files. Uses the saved session when one
exists.

Examples:
  roost skill generate --name=digest --prompt="Summarize my unread mail."
  roost skill generate --name=digest --prompt="..." --dir=skills`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SkillGenerate(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "skill name (required)")
	cmd.Flags().StringVar(&f.Prompt, "prompt", "", "what the skill should do (required)")
	cmd.Flags().StringVar(&f.Dir, "dir", ".", "parent directory for the skill")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("prompt"); err != nil {
		panic(err)
	}
	return cmd
}

// createMarketCommand creates the market command group
func createMarketCommand(c *command) *cobra.Command {
	group := &cobra.Command{
		Use:   "market",
		Short: "Browse and install marketplace skills",
	}
	group.AddCommand(
		createMarketSearchCommand(c),
		createMarketInfoCommand(c),
		createMarketInstallCommand(c),
	)
	return group
}

// createMarketSearchCommand creates the market search subcommand
func createMarketSearchCommand(c *command) *cobra.Command {
	f := &MarketSearchFlags{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the skill marketplace",
		Args:  cobra.MaximumNArgs(1),
		Long: `Search marketplace skills. Without a query, list what the
marketplace returns.

Examples:
  roost market search summarize
  roost market search --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return c.MarketSearch(query, *f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}

// createMarketInfoCommand creates the market info subcommand
func createMarketInfoCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <slug>",
		Short: "Show one marketplace listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.MarketInfo(args[0])
		},
	}
	return cmd
}

// createMarketInstallCommand creates the market install subcommand
func createMarketInstallCommand(c *command) *cobra.Command {
	f := &MarketInstallFlags{}
	cmd := &cobra.Command{
		Use:   "install <slug>",
		Short: "Install a marketplace skill",
		Args:  cobra.ExactArgs(1),
		Long: `Download a marketplace skill's files into a local skill directory.

Examples:
  roost market install summarizer
  roost market install summarizer --dir=skills`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.MarketInstall(args[0], *f)
		},
	}
	cmd.Flags().StringVar(&f.Dir, "dir", ".", "parent directory for the skill")
	return cmd
}

// createUpdateCommand creates the update command
func createUpdateCommand(c *command) *cobra.Command {
	f := &UpdateFlags{}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check the npm registry for a newer CLI",
		Long: `Check whether a newer version of the CLI package is published on
the npm registry. Roost never replaces its own binary, so --check is
required and updating stays an npm operation.

Examples:
  roost update --check
  roost update --check --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.UpdateCheck(*f)
		},
	}
	cmd.Flags().BoolVar(&f.Check, "check", false, "check and report only")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "JSON output")
	return cmd
}
