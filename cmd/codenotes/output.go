package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"codenotes/internal/domain/model"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printProblems(w io.Writer, problems []model.Problem) error {
	if a.flagJSON {
		return writeJSON(w, problems)
	}
	if len(problems) == 0 {
		fmt.Fprintln(w, "No problems.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tTOPIC\tFLAGS")
	for _, p := range problems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ProblemID, p.Title, p.Difficulty, p.TopicID, flagString(p))
	}
	return tw.Flush()
}

func (a *app) printTopics(w io.Writer, topics []model.Topic) error {
	if a.flagJSON {
		return writeJSON(w, topics)
	}
	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPROBLEMS")
	for _, t := range topics {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.TopicID, t.Title, len(t.Problems))
	}
	return tw.Flush()
}

func (a *app) printProblem(w io.Writer, p model.Problem) error {
	if a.flagJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintf(w, "%s  [%s, %s]\n", p.Title, p.Difficulty, p.Language)
	fmt.Fprintf(w, "id: %s  topic: %s  flags: %s\n", p.ProblemID, p.TopicID, flagString(p))
	section := func(name, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		fmt.Fprintf(w, "\n%s:\n%s\n", name, body)
	}
	section("Statement", p.Statement)
	section("Constraints", p.Constraints)
	section("Explanation", p.Explanation)
	section("Code", p.Code)
	if p.TimeComplexity != "" || p.SpaceComplexity != "" {
		fmt.Fprintf(w, "\nTime: %s  Space: %s\n", p.TimeComplexity, p.SpaceComplexity)
	}
	return nil
}

func flagString(p model.Problem) string {
	var flags []string
	if p.IsFavorite {
		flags = append(flags, "fav")
	}
	if p.IsSavedForLater {
		flags = append(flags, "saved")
	}
	if p.IsSolved {
		flags = append(flags, "solved")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
