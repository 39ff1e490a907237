package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"social-monitor/pkg/monitorclient"
	"social-monitor/pkg/session"
)

func rosterCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List the actor roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			var err error
			var actors any
			if all {
				actors, err = c.FullRoster(cmd.Context())
			} else {
				actors, err = c.Roster(cmd.Context())
			}
			if err != nil {
				return err
			}
			printJSON(actors)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated actors")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting identity and write permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			_, st, auth, err := resolveSession(cmd, c)
			if err != nil {
				return err
			}
			out := map[string]any{
				"auto_linked": st.AutoLinked,
				"decision":    session.Authorize(st, auth),
			}
			if st.Actor != nil {
				out["actor"] = st.Actor
			}
			printJSON(out)
			return nil
		},
	}
}

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <actor-id>",
		Short: "Select the acting contributor (persisted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid actor id %q", args[0])
			}
			c := newClient()
			resolver, st, _, err := resolveSession(cmd, c)
			if err != nil {
				return err
			}
			if st.AutoLinked {
				// The authenticated identity decides; a manual choice is
				// discarded silently, matching the dashboard.
				printJSON(st.Actor)
				return nil
			}
			next, err := resolver.Select(cmd.Context(), st, id)
			if err != nil {
				return err
			}
			printJSON(next.Actor)
			return nil
		},
	}
}

func deselectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deselect",
		Short: "Clear the persisted actor selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			resolver, st, _, err := resolveSession(cmd, c)
			if err != nil {
				return err
			}
			if _, err := resolver.Deselect(st); err != nil {
				return err
			}
			printJSON(map[string]string{"status": "ok"})
			return nil
		},
	}
}

func postsCmd() *cobra.Command {
	var opts monitorclient.ListOptions
	var asc bool
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SortDesc = !asc
			posts, err := newClient().Posts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printJSON(posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Sentiment, "sentiment", "", "filter by latest sentiment")
	cmd.Flags().StringVar(&opts.Subreddit, "subreddit", "", "filter by subreddit")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "created_utc", "sort column")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "page offset")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its analysis history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newClient().Post(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJSON(d)
			return nil
		},
	}
}

// lifecycleCmd builds one of the four post state-machine commands. Each
// goes through the coordinator, so the permission gate and the snapshot
// guards apply exactly as in the dashboard.
func lifecycleCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <post-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			_, st, auth, err := resolveSession(cmd, c)
			if err != nil {
				return err
			}
			d, err := c.Post(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			co := monitorclient.NewCoordinator(c, d.Post, nil)
			switch op {
			case "checkout":
				err = co.Checkout(cmd.Context(), st, auth)
			case "release":
				err = co.Release(cmd.Context(), st, auth)
			case "resolve":
				err = co.Resolve(cmd.Context(), st, auth)
			case "unresolve":
				err = co.Unresolve(cmd.Context(), st, auth)
			}
			if err != nil {
				return err
			}
			p := co.Post()
			printJSON(&p)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <post-id>",
		Short: "Run sentiment analysis on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			_, st, auth, err := resolveSession(cmd, c)
			if err != nil {
				return err
			}
			d, err := c.Post(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			co := monitorclient.NewCoordinator(c, d.Post, nil)
			a, err := co.Analyze(cmd.Context(), st, auth)
			if err != nil {
				return err
			}
			printJSON(a)
			return nil
		},
	}
}

func overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show dashboard headline numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newClient().Overview(cmd.Context())
			if err != nil {
				return err
			}
			printJSON(o)
			return nil
		},
	}
}
