package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTopicsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics from the local mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printTopics(cmd.OutOrStdout(), a.session.Snapshot().Topics)
		},
	}
}

func newTopicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Add, rename or remove a topic",
	}

	var topicID string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := a.session.AddTopic(cmd.Context(), topicID, args[0])
			if err != nil {
				return err
			}
			if a.flagJSON {
				return writeJSON(cmd.OutOrStdout(), topic)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created topic %s\n", topic.TopicID)
			return nil
		},
	}
	add.Flags().StringVar(&topicID, "id", "", "topic id (default: derived from the title)")

	rename := &cobra.Command{
		Use:   "rename <topic-id> <title>",
		Short: "Change a topic's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := a.session.UpdateTopic(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.flagJSON {
				return writeJSON(cmd.OutOrStdout(), topic)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed topic %s to %q\n", topic.TopicID, topic.Title)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <topic-id>",
		Short: "Delete a topic and every problem in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.DeleteTopic(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted topic %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, rename, rm)
	return cmd
}
