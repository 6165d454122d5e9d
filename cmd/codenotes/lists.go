package main

import (
	"context"
	"fmt"
	"strings"

	"codenotes/internal/client"
	"codenotes/internal/domain/model"

	"github.com/spf13/cobra"
)

type flagFunc func(*client.Session, context.Context, string) (*model.Problem, error)

func newFlagCmd(a *app, use, short string, apply flagFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <problem-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apply(a.session, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.flagJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Title, flagString(*p))
			return nil
		},
	}
}

func newListCmd(a *app, use, short string, list func(*client.Session) []model.Problem) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printProblems(cmd.OutOrStdout(), list(a.session))
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles and statements, or match a difficulty",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printProblems(cmd.OutOrStdout(), a.session.Search(strings.Join(args, " ")))
		},
	}
}
