package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roosthq/roost/internal/auth"
	"github.com/roosthq/roost/pkg/client"
)

// openAuth opens the daemon's user store directly. User administration
// is an operator action on the node itself: it works while the daemon
// is down and never needs a session.
func (c *command) openAuth() (*auth.Service, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	users, err := auth.OpenStore(cfg.Auth.DSN)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	secret, err := c.jwtSecret(cfg)
	if err != nil {
		_ = users.Close()
		return nil, err
	}
	return auth.New(users, secret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
}

// sessions returns the manager for the login session file.
func (c *command) sessions() (*SessionManager, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return NewSessionManager(cfg.SessionPath()), nil
}

// daemonClient builds a client for the local daemon, installing the
// saved session token when one exists.
func (c *command) daemonClient() (*client.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cc := client.Config{BaseURL: cfg.DaemonURL(), Logger: c.logger()}
	sm := NewSessionManager(cfg.SessionPath())
	if sess, err := sm.LoadSession(); err == nil && sess != nil {
		cc.Token = sess.Token
	}
	return client.New(cc), nil
}

// UserCreate adds a user to the daemon's store.
func (c *command) UserCreate(f UserCreateFlags) error {
	svc, err := c.openAuth()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	user, err := svc.CreateUser(context.Background(), f.Username, f.Password, f.Roles)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user %s created (roles: %s)\n", user.Username, strings.Join(user.Roles, ", "))
	return nil
}

// UserList prints all users.
func (c *command) UserList(f UserListFlags) error {
	svc, err := c.openAuth()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		return err
	}
	if f.JSON {
		return printJSON(c.out, users)
	}
	if len(users) == 0 {
		fmt.Fprintln(c.out, "no users (create one with 'roost user create')")
		return nil
	}
	for _, u := range users {
		state := "active"
		if !u.Active {
			state = "disabled"
		}
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", u.Username, strings.Join(u.Roles, ","), state)
	}
	return nil
}

// UserDelete removes a user.
func (c *command) UserDelete(username string) error {
	svc, err := c.openAuth()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.DeleteUser(context.Background(), username); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user %s deleted\n", username)
	return nil
}

// Login authenticates against the running daemon and saves the session.
func (c *command) Login(f LoginFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	cli, err := c.daemonClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !cli.IsReachable(ctx) {
		return fmt.Errorf("daemon not reachable at %s - start it first with 'roost daemon start'", cfg.DaemonURL())
	}
	tok, err := cli.Login(ctx, f.Username, f.Password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid username or password")
		}
		return err
	}

	sm, err := c.sessions()
	if err != nil {
		return err
	}
	err = sm.SaveSession(&Session{
		Token:     tok.Value,
		TokenType: tok.Type,
		ExpiresAt: tok.ExpiresAt,
		Username:  tok.Username,
		Roles:     tok.Roles,
		ServerURL: cfg.DaemonURL(),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.out, "logged in as %s (session expires %s)\n",
		tok.Username, tok.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

// Logout discards the saved session. The token itself just expires;
// the daemon keeps no session state to revoke.
func (c *command) Logout() error {
	sm, err := c.sessions()
	if err != nil {
		return err
	}
	if !sm.IsLoggedIn() {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	if err := sm.ClearSession(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

// Whoami prints the saved session.
func (c *command) Whoami() error {
	sm, err := c.sessions()
	if err != nil {
		return err
	}
	sess, err := sm.LoadSession()
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.New("not logged in (run 'roost login')")
	}
	fmt.Fprintf(c.out, "%s @ %s (roles: %s, session expires %s)\n",
		sess.Username, sess.ServerURL, strings.Join(sess.Roles, ","),
		sess.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
