package service

import (
	"context"
	"testing"

	"codenotes/internal/domain/model"

	"pgregory.net/rapid"
)

func TestToggleTwiceRestoresState_Properties(t *testing.T) {
	c := setupCoordinator(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		flag := rapid.SampledFrom(model.AllFlags).Draw(rt, "flag")
		initial := rapid.Bool().Draw(rt, "initial")
		title := rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ]{0,39}`).Draw(rt, "title")

		p, err := c.problems.CreateProblem(ctx, "alice", createReq(title, "props"))
		if err != nil {
			rt.Fatalf("create: %v", err)
		}
		if _, err := c.membership.SetMembershipFlag(ctx, "alice", p.ProblemID, flag, initial); err != nil {
			rt.Fatalf("set initial: %v", err)
		}

		for _, value := range []bool{!initial, initial} {
			if _, err := c.membership.SetMembershipFlag(ctx, "alice", p.ProblemID, flag, value); err != nil {
				rt.Fatalf("toggle to %v: %v", value, err)
			}
		}

		got, err := c.problems.GetProblem(ctx, "alice", p.ProblemID)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got.Flag(flag) != initial {
			rt.Fatalf("%s flag = %v, want %v", flag, got.Flag(flag), initial)
		}
		user, err := c.membership.GetUser(ctx, "alice")
		if err != nil {
			rt.Fatalf("get user: %v", err)
		}
		if user.Has(flag, p.ProblemID) != initial {
			rt.Fatalf("%s membership = %v, want %v", flag, user.Has(flag, p.ProblemID), initial)
		}
		topic, err := c.topics.GetTopic(ctx, "alice", "props")
		if err != nil {
			rt.Fatalf("get topic: %v", err)
		}
		if topic.Problems[p.ProblemID].Flag(flag) != initial {
			rt.Fatalf("embedded %s flag = %v, want %v", flag, topic.Problems[p.ProblemID].Flag(flag), initial)
		}
	})
}

func TestEmbeddedCopyTracksUpdates_Properties(t *testing.T) {
	c := setupCoordinator(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		p, err := c.problems.CreateProblem(ctx, "alice", createReq("seed", "tracking"))
		if err != nil {
			rt.Fatalf("create: %v", err)
		}
		steps := rapid.IntRange(1, 5).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			req := UpdateProblemRequest{}
			if rapid.Bool().Draw(rt, "setTitle") {
				req.Title = ptr(rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,30}`).Draw(rt, "title"))
			}
			if rapid.Bool().Draw(rt, "setCode") {
				req.Code = ptr(rapid.StringMatching(`[ -~\n\t]{0,80}`).Draw(rt, "code"))
			}
			if rapid.Bool().Draw(rt, "setDifficulty") {
				req.Difficulty = ptr(rapid.SampledFrom([]model.ProblemDifficulty{
					model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard,
				}).Draw(rt, "difficulty"))
			}
			if _, err := c.problems.UpdateProblem(ctx, "alice", p.ProblemID, req); err != nil {
				rt.Fatalf("update: %v", err)
			}

			canonical, err := c.problems.GetProblem(ctx, "alice", p.ProblemID)
			if err != nil {
				rt.Fatalf("get: %v", err)
			}
			topic, err := c.topics.GetTopic(ctx, "alice", "tracking")
			if err != nil {
				rt.Fatalf("get topic: %v", err)
			}
			same, err := sameProblems(model.TopicProblems{p.ProblemID: *canonical}, model.TopicProblems{p.ProblemID: topic.Problems[p.ProblemID]})
			if err != nil || !same {
				rt.Fatalf("embedded copy diverged after step %d", i)
			}
		}
	})
}
