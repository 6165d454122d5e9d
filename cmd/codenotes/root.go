package main

import (
	"fmt"

	"codenotes/internal/client"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/logger"

	"github.com/spf13/cobra"
)

// app holds what the commands of one invocation share.
type app struct {
	flagConfigDir string
	flagJSON      bool

	store   *client.BadgerPersister
	session *client.Session
	log     *logger.Logger
}

func (a *app) open(cmd *cobra.Command) error {
	configDir, err := resolveConfigDir(a.flagConfigDir)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	a.log, err = logger.New(cfg.GetString(cfgKeyLogMode))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	a.store, err = client.OpenBadgerPersister(cfg.GetString(cfgKeyDataDir), a.log)
	if err != nil {
		return err
	}
	api := client.NewAPI(cfg.GetString(cfgKeyAPIURL)).WithTimeout(cfg.GetDuration(cfgKeyTimeout))
	a.session = client.NewSession(api, a.store, a.log)
	if err := a.session.Load(); err != nil {
		return fmt.Errorf("load saved state: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		a.log.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "codenotes",
		Short: "Organize coding problems and your notes on them",
		Long: `codenotes keeps your coding problems grouped into topics, together with
their statement, code and complexity notes, and lets you mark them as
favorite, saved for later or solved.

State is mirrored locally; run "codenotes sync" to refresh it from the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: $HOME/.codenotes)")
	root.PersistentFlags().BoolVar(&a.flagJSON, "json", false, "output as JSON")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newSyncCmd(a),
		newThemeCmd(a),
		newTopicsCmd(a),
		newTopicCmd(a),
		newProblemCmd(a),
		newFlagCmd(a, "fav", "Toggle favorite on a problem", (*client.Session).ToggleFavorite),
		newFlagCmd(a, "save", "Toggle saved-for-later on a problem", (*client.Session).ToggleSavedForLater),
		newFlagCmd(a, "solve", "Toggle solved on a problem", (*client.Session).ToggleSolved),
		newFlagCmd(a, "unsolve", "Clear solved on a problem", (*client.Session).UnmarkSolved),
		newSearchCmd(a),
		newListCmd(a, "favorites", "List favorite problems", (*client.Session).Favorites),
		newListCmd(a, "saved", "List problems saved for later", (*client.Session).SavedForLater),
		newListCmd(a, "solved", "List solved problems", (*client.Session).Solved),
	)
	return root
}

func newLoginCmd(a *app) *cobra.Command {
	var userID, name, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials issued by the auth service and sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Login(model.User{ID: userID, Name: name}, token); err != nil {
				return err
			}
			if _, err := a.session.RefreshUser(cmd.Context()); err != nil {
				return fmt.Errorf("verify token: %w", err)
			}
			if name != "" {
				if _, err := a.session.UpdateProfile(cmd.Context(), name); err != nil {
					return err
				}
			}
			if err := a.session.Refresh(cmd.Context()); err != nil {
				return err
			}
			snap := a.session.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%d topics)\n", displayName(snap.User), len(snap.Topics))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget credentials and the local mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh topics and problems from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Refresh(cmd.Context()); err != nil {
				return err
			}
			snap := a.session.Snapshot()
			problems := 0
			for _, t := range snap.Topics {
				problems += len(t.Problems)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d topics, %d problems\n", len(snap.Topics), problems)
			return nil
		},
	}
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle dark mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "light"
			if a.session.ToggleDarkMode() {
				mode = "dark"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", mode)
			return nil
		},
	}
}

func displayName(u *model.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
