package service

import (
	"testing"

	"github.com/streethall/hoa/internal/workflow"
)

func TestGroupAdminManagesOwnGroupOnly(t *testing.T) {
	f := newFixture(t)
	lead := f.user("lead", workflow.RoleUser)
	alice := f.user("alice", workflow.RoleUser)
	bob := f.user("bob", workflow.RoleUser)

	own, errCreate := f.svc.Groups.Create(f.ctx, f.admin, GroupInput{Name: "1 Elm", AdminUserID: &lead.ID})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	other := f.group("2 Elm", bob)

	members, errMembers := f.svc.Groups.Members(f.ctx, lead, own.ID)
	if errMembers != nil {
		t.Fatalf("members: %v", errMembers)
	}
	if len(members) != 1 || members[0].UserID != lead.ID {
		t.Fatalf("expected group admin to be enrolled as member, got %d rows", len(members))
	}

	if _, errAdd := f.svc.Groups.AddMember(f.ctx, lead, own.ID, alice.ID); errAdd != nil {
		t.Fatalf("group admin add: %v", errAdd)
	}
	_, errAdd := f.svc.Groups.AddMember(f.ctx, lead, own.ID, alice.ID)
	requireKind(t, errAdd, workflow.KindInvalid)
	_, errAdd = f.svc.Groups.AddMember(f.ctx, lead, other, alice.ID)
	requireKind(t, errAdd, workflow.KindForbidden)
	_, errAdd = f.svc.Groups.AddMember(f.ctx, lead, 999, alice.ID)
	requireKind(t, errAdd, workflow.KindNotFound)

	requireKind(t, f.svc.Groups.RemoveMember(f.ctx, lead, own.ID, lead.ID), workflow.KindInvalid)
	if errRemove := f.svc.Groups.RemoveMember(f.ctx, lead, own.ID, alice.ID); errRemove != nil {
		t.Fatalf("remove: %v", errRemove)
	}

	_, errMembers = f.svc.Groups.Members(f.ctx, alice, own.ID)
	requireKind(t, errMembers, workflow.KindForbidden)
	_, errUpdate := f.svc.Groups.Update(f.ctx, lead, own.ID, GroupPatch{ClearAdmin: true})
	requireKind(t, errUpdate, workflow.KindForbidden)
}

func TestInactiveMemberStillPassesMembershipGuard(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	g1 := f.group("1 Elm", alice)
	if _, errSet := f.svc.Groups.SetMemberStatus(f.ctx, f.admin, g1, alice.ID, workflow.MembershipInactive); errSet != nil {
		t.Fatalf("deactivate: %v", errSet)
	}
	if _, errGet := f.svc.Groups.Get(f.ctx, alice, g1); errGet != nil {
		t.Fatalf("expected member access regardless of membership status: %v", errGet)
	}
	mine, errMine := f.svc.Groups.ListForUser(f.ctx, alice)
	if errMine != nil || len(mine) != 1 {
		t.Fatalf("expected one group, got %d %v", len(mine), errMine)
	}
}

func TestGroupDeleteRejectedWhenReferenced(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	g1 := f.group("1 Elm", alice)
	g2 := f.group("2 Elm")
	campaign, _ := f.svc.Campaigns.Create(f.ctx, f.admin, GoalInput{Title: "Trees", GoalAmount: 100})
	if _, errSubmit := f.svc.Campaigns.Submit(f.ctx, alice, campaign.ID, SubmissionInput{GroupID: g1, Amount: 10, Method: workflow.PaymentCash}); errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}

	requireKind(t, f.svc.Groups.Delete(f.ctx, f.admin, g1), workflow.KindInvalid)
	if errDelete := f.svc.Groups.Delete(f.ctx, f.admin, g2); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	requireKind(t, f.svc.Groups.Delete(f.ctx, f.admin, g2), workflow.KindNotFound)

	_, errCreate := f.svc.Groups.Create(f.ctx, f.admin, GroupInput{Name: "1 Elm"})
	requireKind(t, errCreate, workflow.KindInvalid)
}
