package service

import (
	"testing"
	"time"

	"github.com/streethall/hoa/internal/workflow"
)

func TestPostPublishLifecycle(t *testing.T) {
	f := newFixture(t)
	resident := f.user("alice", workflow.RoleUser)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.Posts.now = func() time.Time { return fixed }

	post, errCreate := f.svc.Posts.Create(f.ctx, f.admin, PostInput{Title: "Meeting", Body: "Tuesday at 7"})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	_, errGet := f.svc.Posts.Get(f.ctx, resident, post.ID)
	requireKind(t, errGet, workflow.KindNotFound)
	_, errUnpublish := f.svc.Posts.Unpublish(f.ctx, f.admin, post.ID)
	requireKind(t, errUnpublish, workflow.KindInvalid)

	published, errPublish := f.svc.Posts.Publish(f.ctx, f.admin, post.ID)
	if errPublish != nil {
		t.Fatalf("publish: %v", errPublish)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(fixed) {
		t.Fatalf("expected publishedAt %v, got %v", fixed, published.PublishedAt)
	}
	_, errPublish = f.svc.Posts.Publish(f.ctx, f.admin, post.ID)
	requireKind(t, errPublish, workflow.KindInvalid)

	list, _ := f.svc.Posts.List(f.ctx, resident)
	if len(list) != 1 {
		t.Fatalf("expected published post visible, got %d", len(list))
	}

	draft, errUnpublish := f.svc.Posts.Unpublish(f.ctx, f.admin, post.ID)
	if errUnpublish != nil {
		t.Fatalf("unpublish: %v", errUnpublish)
	}
	if draft.PublishedAt != nil || draft.Status != string(workflow.PostDraft) {
		t.Fatalf("expected cleared publishedAt, got %+v", draft)
	}
	list, _ = f.svc.Posts.List(f.ctx, resident)
	if len(list) != 0 {
		t.Fatalf("expected draft hidden, got %d", len(list))
	}
}

func TestEventScheduleValidation(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	_, errCreate := f.svc.Events.Create(f.ctx, f.admin, EventInput{Title: "BBQ", StartsAt: start, EndsAt: &before})
	requireKind(t, errCreate, workflow.KindInvalid)

	end := start.Add(3 * time.Hour)
	event, errCreate := f.svc.Events.Create(f.ctx, f.admin, EventInput{Title: "BBQ", StartsAt: start, EndsAt: &end, Location: "Park"})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	late := end.Add(time.Hour)
	_, errUpdate := f.svc.Events.Update(f.ctx, f.admin, event.ID, EventPatch{StartsAt: &late})
	requireKind(t, errUpdate, workflow.KindInvalid)

	f.svc.Events.now = func() time.Time { return end.Add(time.Minute) }
	upcoming, errList := f.svc.Events.List(f.ctx, f.admin, true)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(upcoming) != 0 {
		t.Fatalf("expected finished event skipped, got %d", len(upcoming))
	}
	all, _ := f.svc.Events.List(f.ctx, f.admin, false)
	if len(all) != 1 {
		t.Fatalf("expected 1 event, got %d", len(all))
	}
}

func TestDashboardOverview(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	bob := f.user("bob", workflow.RoleUser)
	g1 := f.group("1 Elm", alice)
	f.group("2 Elm", bob)
	req, _ := f.svc.PaymentRequests.Create(f.ctx, f.admin, GoalInput{Title: "Dues", GoalAmount: 200})
	if _, errSubmit := f.svc.PaymentRequests.Submit(f.ctx, alice, req.ID, SubmissionInput{GroupID: g1, Amount: 100, Method: workflow.PaymentCash}); errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	poll := newPoll(f, "Yes", "No")
	if _, errLaunch := f.svc.Polls.Transition(f.ctx, f.admin, poll.ID, workflow.PollLaunch); errLaunch != nil {
		t.Fatalf("launch: %v", errLaunch)
	}

	dash, errDash := f.svc.Dashboard.Overview(f.ctx, alice)
	if errDash != nil {
		t.Fatalf("overview: %v", errDash)
	}
	if dash.ActiveGroups != 2 || dash.TotalGroups != 2 {
		t.Fatalf("unexpected group counts %+v", dash)
	}
	if len(dash.PaymentRequests) != 1 || dash.PaymentRequests[0].Progress.GroupPercent != 50 {
		t.Fatalf("unexpected payment request summary %+v", dash.PaymentRequests)
	}
	if dash.PaymentRequests[0].Progress.PendingTotal != 100 {
		t.Fatalf("expected pending total 100, got %v", dash.PaymentRequests[0].Progress.PendingTotal)
	}
	if len(dash.ActivePolls) != 1 || dash.ActivePolls[0].Participation != 0 {
		t.Fatalf("unexpected poll summary %+v", dash.ActivePolls)
	}
}
