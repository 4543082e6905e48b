package service

import (
	"testing"

	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
)

func newPoll(f *fixture, labels ...string) *models.Poll {
	f.t.Helper()
	in := PollInput{Title: "Repaint the fence"}
	for _, label := range labels {
		in.Options = append(in.Options, OptionInput{Label: label})
	}
	poll, errCreate := f.svc.Polls.Create(f.ctx, f.admin, in)
	if errCreate != nil {
		f.t.Fatalf("create poll: %v", errCreate)
	}
	return poll
}

func TestPollScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	bob := f.user("bob", workflow.RoleUser)
	g1 := f.group("1 Elm", alice)
	g2 := f.group("2 Elm", bob)

	poll := newPoll(f, "Green", "White")
	if poll.Status != string(workflow.PollDraft) {
		t.Fatalf("expected draft, got %s", poll.Status)
	}
	green, white := poll.Options[0].ID, poll.Options[1].ID

	_, errVote := f.svc.Polls.CastVote(f.ctx, alice, poll.ID, g1, green)
	requireKind(t, errVote, workflow.KindInvalid)

	if _, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollLaunch); errLaunch != nil {
		t.Fatalf("launch: %v", errLaunch)
	}
	if _, errVote = f.svc.Polls.CastVote(f.ctx, alice, poll.ID, g1, green); errVote != nil {
		t.Fatalf("vote: %v", errVote)
	}
	if _, errVote = f.svc.Polls.CastVote(f.ctx, alice, poll.ID, g1, white); errVote != nil {
		t.Fatalf("recast: %v", errVote)
	}
	if _, errVote = f.svc.Polls.CastVote(f.ctx, bob, poll.ID, g2, white); errVote != nil {
		t.Fatalf("vote g2: %v", errVote)
	}

	var rows []models.Vote
	f.db.Where("poll_id = ?", poll.ID).Order("group_id").Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("expected one vote per group, got %d", len(rows))
	}
	if rows[0].GroupID != g1 || rows[0].OptionID != white {
		t.Fatalf("expected last write to win, got %+v", rows[0])
	}

	results, errResults := f.svc.Polls.Results(f.ctx, alice, poll.ID)
	if errResults != nil {
		t.Fatalf("results: %v", errResults)
	}
	if results.TotalVotes != 2 || results.Participation != 100 {
		t.Fatalf("unexpected totals %+v", results)
	}
	if results.Options[1].Votes != 2 || results.Options[1].Percent != 100 || results.Options[0].Votes != 0 {
		t.Fatalf("unexpected option tallies %+v", results.Options)
	}

	if _, errClose := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollClose); errClose != nil {
		t.Fatalf("close: %v", errClose)
	}
	_, errVote = f.svc.Polls.CastVote(f.ctx, bob, poll.ID, g2, green)
	requireKind(t, errVote, workflow.KindInvalid)

	reset, errReset := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollReset)
	if errReset != nil {
		t.Fatalf("reset: %v", errReset)
	}
	if reset.Status != string(workflow.PollDraft) {
		t.Fatalf("expected draft after reset, got %s", reset.Status)
	}
	var remaining int64
	f.db.Model(&models.Vote{}).Where("poll_id = ?", poll.ID).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("expected votes cleared, got %d", remaining)
	}
}

func TestPollOptionsEditableOnlyInDraft(t *testing.T) {
	f := newFixture(t)
	poll := newPoll(f, "Yes")

	added, errAdd := f.svc.Polls.AddOption(f.ctx, f.admin, poll.ID, OptionInput{Label: "No"})
	if errAdd != nil {
		t.Fatalf("add option: %v", errAdd)
	}
	if added.Position != 1 {
		t.Fatalf("expected appended position 1, got %d", added.Position)
	}
	label := "Nope"
	if _, errUpdate := f.svc.Polls.UpdateOption(f.ctx, f.admin, poll.ID, added.ID, OptionPatch{Label: &label}); errUpdate != nil {
		t.Fatalf("update option: %v", errUpdate)
	}

	if _, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollLaunch); errLaunch != nil {
		t.Fatalf("launch: %v", errLaunch)
	}
	_, errAdd = f.svc.Polls.AddOption(f.ctx, f.admin, poll.ID, OptionInput{Label: "Maybe"})
	requireKind(t, errAdd, workflow.KindInvalid)
	_, errUpdate := f.svc.Polls.UpdateOption(f.ctx, f.admin, poll.ID, added.ID, OptionPatch{Label: &label})
	requireKind(t, errUpdate, workflow.KindInvalid)
	requireKind(t, f.svc.Polls.RemoveOption(f.ctx, f.admin, poll.ID, added.ID), workflow.KindInvalid)

	title := "New title"
	_, errPatch := f.svc.Polls.Update(f.ctx, f.admin, poll.ID, PollPatch{Title: &title})
	requireKind(t, errPatch, workflow.KindInvalid)
	if errPatch.Error() != "a poll can only be edited while it is a draft" {
		t.Fatalf("unexpected poll edit message %q", errPatch.Error())
	}
}

func TestPollTransitionsFollowTable(t *testing.T) {
	f := newFixture(t)
	poll := newPoll(f, "Yes")

	_, errClose := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollClose)
	requireKind(t, errClose, workflow.KindInvalid)
	_, errReopen := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollReopen)
	requireKind(t, errReopen, workflow.KindInvalid)

	empty := newPoll(f)
	_, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, empty.ID, workflow.PollLaunch)
	requireKind(t, errLaunch, workflow.KindInvalid)

	resident := f.user("carol", workflow.RoleUser)
	_, errForbidden := f.svc.Polls.Transition(f.ctx, resident, poll.ID, workflow.PollLaunch)
	requireKind(t, errForbidden, workflow.KindForbidden)
	_, errMissing := f.svc.Polls.Transition(f.ctx, f.admin, 999, workflow.PollLaunch)
	requireKind(t, errMissing, workflow.KindNotFound)
}

func TestCastVoteRequiresMembershipAndPollOption(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	mallory := f.user("mallory", workflow.RoleUser)
	g1 := f.group("1 Elm", alice)
	poll := newPoll(f, "Yes")
	other := newPoll(f, "Other")
	if _, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollLaunch); errLaunch != nil {
		t.Fatalf("launch: %v", errLaunch)
	}

	_, errVote := f.svc.Polls.CastVote(f.ctx, mallory, poll.ID, g1, poll.Options[0].ID)
	requireKind(t, errVote, workflow.KindForbidden)
	_, errVote = f.svc.Polls.CastVote(f.ctx, alice, poll.ID, 999, poll.Options[0].ID)
	requireKind(t, errVote, workflow.KindNotFound)
	_, errVote = f.svc.Polls.CastVote(f.ctx, alice, poll.ID, g1, other.Options[0].ID)
	requireKind(t, errVote, workflow.KindInvalid)
	_, errVote = f.svc.Polls.CastVote(f.ctx, workflow.Actor{}, poll.ID, g1, poll.Options[0].ID)
	requireKind(t, errVote, workflow.KindUnauthorized)

	vote, errGroupVote := f.svc.Polls.GroupVote(f.ctx, alice, poll.ID, g1)
	if errGroupVote != nil || vote != nil {
		t.Fatalf("expected no vote yet, got %+v, %v", vote, errGroupVote)
	}
	_, errGroupVote = f.svc.Polls.GroupVote(f.ctx, alice, 999, g1)
	requireKind(t, errGroupVote, workflow.KindNotFound)
	_, errGroupVote = f.svc.Polls.GroupVote(f.ctx, mallory, poll.ID, g1)
	requireKind(t, errGroupVote, workflow.KindForbidden)
}

func TestDraftPollsHiddenFromResidents(t *testing.T) {
	f := newFixture(t)
	resident := f.user("alice", workflow.RoleUser)
	g1 := f.group("1 Elm", resident)
	draft := newPoll(f, "Yes")
	active := newPoll(f, "Yes")
	if _, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, active.ID, workflow.PollLaunch); errLaunch != nil {
		t.Fatalf("launch: %v", errLaunch)
	}

	_, errGet := f.svc.Polls.Get(f.ctx, resident, draft.ID)
	requireKind(t, errGet, workflow.KindNotFound)
	_, errGroupVote := f.svc.Polls.GroupVote(f.ctx, resident, draft.ID, g1)
	requireKind(t, errGroupVote, workflow.KindNotFound)
	if _, errAdminVote := f.svc.Polls.GroupVote(f.ctx, f.admin, draft.ID, g1); errAdminVote != nil {
		t.Fatalf("admin group vote on draft: %v", errAdminVote)
	}

	polls, errList := f.svc.Polls.List(f.ctx, resident, "")
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(polls) != 1 || polls[0].ID != active.ID {
		t.Fatalf("expected only the active poll, got %d polls", len(polls))
	}

	all, _ := f.svc.Polls.List(f.ctx, f.admin, "")
	if len(all) != 2 {
		t.Fatalf("expected admin to see 2 polls, got %d", len(all))
	}
}
