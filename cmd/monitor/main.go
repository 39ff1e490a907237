// Command monitor is the terminal client for the social-monitor backend:
// roster management, actor selection and the post triage operations.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"social-monitor/pkg/monitorclient"
	"social-monitor/pkg/session"
)

type cliConfig struct {
	ServerURL   string `toml:"server_url"`
	Token       string `toml:"token"`
	AuthEnabled bool   `toml:"auth_enabled"`
}

var (
	cfgPath   string
	serverURL string
	cfg       cliConfig
)

func main() {
	root := &cobra.Command{
		Use:           "monitor",
		Short:         "Triage reddit posts from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL (overrides config)")

	root.AddCommand(
		rosterCmd(),
		whoamiCmd(),
		selectCmd(),
		deselectCmd(),
		postsCmd(),
		showCmd(),
		lifecycleCmd("checkout", "Check out a post for yourself"),
		lifecycleCmd("release", "Release your checkout on a post"),
		lifecycleCmd("resolve", "Mark a post as done"),
		lifecycleCmd("unresolve", "Reopen a post"),
		analyzeCmd(),
		overviewCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "social-monitor"), nil
}

func loadConfig() error {
	cfg = cliConfig{ServerURL: "http://localhost:8080"}

	path := cfgPath
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.toml")
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	return nil
}

func newClient() *monitorclient.Client {
	opts := []monitorclient.Option{}
	if cfg.Token != "" {
		opts = append(opts, monitorclient.WithToken(cfg.Token))
	}
	return monitorclient.New(cfg.ServerURL, opts...)
}

func selectionStore() (session.SelectionStore, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(filepath.Join(dir, "selection.toml")), nil
}

// resolveSession computes the acting identity the same way the dashboard
// does: auto-linked from the authenticated identity when auth is on,
// otherwise from the persisted manual selection.
func resolveSession(cmd *cobra.Command, c *monitorclient.Client) (*session.Resolver, session.State, session.AuthStatus, error) {
	store, err := selectionStore()
	if err != nil {
		return nil, session.State{}, session.AuthStatus{}, err
	}
	resolver := session.NewResolver(c, store)

	auth := session.AuthStatus{Enabled: cfg.AuthEnabled}
	if cfg.AuthEnabled {
		me, err := c.Me(cmd.Context())
		if err != nil {
			return nil, session.State{}, auth, fmt.Errorf("fetch current user: %w", err)
		}
		auth.Authenticated = me.Authenticated
		auth.LinkedActorID = me.ContributorID
	}

	st, err := resolver.Resolve(cmd.Context(), auth)
	if err != nil {
		return nil, session.State{}, auth, err
	}
	return resolver, st, auth, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: encode JSON: %v\n", err)
		os.Exit(1)
	}
}
