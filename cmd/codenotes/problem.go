package main

import (
	"fmt"
	"os"

	"codenotes/internal/app/service"
	"codenotes/internal/domain/model"

	"github.com/spf13/cobra"
)

// problemFields are the flags shared by "problem add" and "problem edit".
type problemFields struct {
	title, difficulty, language string
	statement, constraints      string
	explanation, code, codeFile string
	timeComplexity              string
	spaceComplexity             string
}

func (f *problemFields) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "problem title")
	fs.StringVar(&f.difficulty, "difficulty", "", "Easy, Medium or Hard")
	fs.StringVar(&f.language, "language", "", "javascript, python, java, cpp or other")
	fs.StringVar(&f.statement, "statement", "", "problem statement")
	fs.StringVar(&f.constraints, "constraints", "", "input constraints")
	fs.StringVar(&f.explanation, "explanation", "", "notes on the approach")
	fs.StringVar(&f.code, "code", "", "solution code")
	fs.StringVar(&f.codeFile, "code-file", "", "read solution code from a file")
	fs.StringVar(&f.timeComplexity, "time", "", "time complexity")
	fs.StringVar(&f.spaceComplexity, "space", "", "space complexity")
}

func (f *problemFields) readCode() error {
	if f.codeFile == "" {
		return nil
	}
	raw, err := os.ReadFile(f.codeFile)
	if err != nil {
		return fmt.Errorf("read code file: %w", err)
	}
	f.code = string(raw)
	return nil
}

func newProblemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Add, edit, remove or show a problem",
	}
	cmd.AddCommand(newProblemAddCmd(a), newProblemEditCmd(a), newProblemRmCmd(a), newProblemShowCmd(a))
	return cmd
}

func newProblemAddCmd(a *app) *cobra.Command {
	var fields problemFields
	var topicID, topicTitle string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a problem, creating its topic if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fields.readCode(); err != nil {
				return err
			}
			p, err := a.session.CreateProblem(cmd.Context(), service.CreateProblemRequest{
				Title:           fields.title,
				Statement:       fields.statement,
				Difficulty:      model.ProblemDifficulty(fields.difficulty),
				Language:        model.Language(fields.language),
				Constraints:     fields.constraints,
				Explanation:     fields.explanation,
				Code:            fields.code,
				TimeComplexity:  fields.timeComplexity,
				SpaceComplexity: fields.spaceComplexity,
				TopicID:         topicID,
				TopicTitle:      topicTitle,
			})
			if err != nil {
				return err
			}
			if a.flagJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created problem %s in %s\n", p.ProblemID, p.TopicID)
			return nil
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&topicID, "topic", "", "topic id")
	cmd.Flags().StringVar(&topicTitle, "topic-title", "", "title for the topic if it has to be created")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("difficulty")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newProblemEditCmd(a *app) *cobra.Command {
	var fields problemFields
	cmd := &cobra.Command{
		Use:   "edit <problem-id>",
		Short: "Change the given fields of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fields.readCode(); err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			var req service.UpdateProblemRequest
			str := func(name, v string) *string {
				if !changed(name) {
					return nil
				}
				return &v
			}
			req.Title = str("title", fields.title)
			req.Statement = str("statement", fields.statement)
			req.Constraints = str("constraints", fields.constraints)
			req.Explanation = str("explanation", fields.explanation)
			req.TimeComplexity = str("time", fields.timeComplexity)
			req.SpaceComplexity = str("space", fields.spaceComplexity)
			if changed("code") || changed("code-file") {
				req.Code = &fields.code
			}
			if changed("difficulty") {
				d := model.ProblemDifficulty(fields.difficulty)
				req.Difficulty = &d
			}
			if changed("language") {
				l := model.Language(fields.language)
				req.Language = &l
			}

			p, err := a.session.UpdateProblem(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated problem %s\n", p.ProblemID)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}

func newProblemRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <problem-id>",
		Short: "Delete a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.DeleteProblem(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted problem %s\n", args[0])
			return nil
		},
	}
}

func newProblemShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <problem-id>",
		Short: "Select a problem and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.SelectProblem(args[0]); err != nil {
				return err
			}
			return a.printProblem(cmd.OutOrStdout(), *a.session.Snapshot().SelectedProblem)
		},
	}
}
