package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/streethall/hoa/internal/security"
	"github.com/streethall/hoa/internal/settings"
	"github.com/streethall/hoa/internal/workflow"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	defer security.SetHashCostForTesting(bcrypt.MinCost)()
	f := newFixture(t)

	user, errRegister := f.svc.Users.Register(f.ctx, RegisterInput{Username: " alice ", Password: "correct-horse", Name: "Alice"})
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if user.Username != "alice" || user.Role != string(workflow.RoleUser) || user.Status != string(workflow.UserActive) {
		t.Fatalf("unexpected user %+v", user)
	}
	_, errDup := f.svc.Users.Register(f.ctx, RegisterInput{Username: "alice", Password: "correct-horse"})
	requireKind(t, errDup, workflow.KindInvalid)
	_, errWeak := f.svc.Users.Register(f.ctx, RegisterInput{Username: "bob", Password: "short"})
	requireKind(t, errWeak, workflow.KindInvalid)

	if _, errAuth := f.svc.Users.Authenticate(f.ctx, "alice", "correct-horse", ""); errAuth != nil {
		t.Fatalf("authenticate: %v", errAuth)
	}
	_, errAuth := f.svc.Users.Authenticate(f.ctx, "alice", "wrong-password", "")
	requireKind(t, errAuth, workflow.KindUnauthorized)

	if _, errStatus := f.svc.Users.SetStatus(f.ctx, f.admin, user.ID, workflow.UserInactive); errStatus != nil {
		t.Fatalf("deactivate: %v", errStatus)
	}
	_, errAuth = f.svc.Users.Authenticate(f.ctx, "alice", "correct-horse", "")
	requireKind(t, errAuth, workflow.KindForbidden)
	_, errActor := f.svc.Users.Actor(f.ctx, user.ID)
	requireKind(t, errActor, workflow.KindForbidden)
}

func TestRegisterHonorsSetting(t *testing.T) {
	settings.Store(time.Now(), map[string]json.RawMessage{settings.AllowRegistrationKey: json.RawMessage("false")})
	defer settings.Store(time.Time{}, nil)
	f := newFixture(t)

	_, errRegister := f.svc.Users.Register(f.ctx, RegisterInput{Username: "alice", Password: "correct-horse"})
	requireKind(t, errRegister, workflow.KindForbidden)

	defer security.SetHashCostForTesting(bcrypt.MinCost)()
	admin, created, errEnsure := f.svc.Users.EnsureAdmin(f.ctx, RegisterInput{Username: "root", Password: "correct-horse"})
	if errEnsure != nil || !created {
		t.Fatalf("ensure admin: created=%v err=%v", created, errEnsure)
	}
	if admin.Role != string(workflow.RoleAdmin) {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
}

func TestEnsureAdminPromotesExisting(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)

	user, created, errEnsure := f.svc.Users.EnsureAdmin(f.ctx, RegisterInput{Username: "alice"})
	if errEnsure != nil {
		t.Fatalf("ensure admin: %v", errEnsure)
	}
	if created || user.ID != alice.ID || user.Role != string(workflow.RoleAdmin) {
		t.Fatalf("expected promotion of existing user, got created=%v %+v", created, user)
	}
}

func TestAdminsCannotLockThemselvesOut(t *testing.T) {
	f := newFixture(t)
	_, errRole := f.svc.Users.SetRole(f.ctx, f.admin, f.admin.ID, workflow.RoleUser)
	requireKind(t, errRole, workflow.KindInvalid)
	_, errStatus := f.svc.Users.SetStatus(f.ctx, f.admin, f.admin.ID, workflow.UserInactive)
	requireKind(t, errStatus, workflow.KindInvalid)

	alice := f.user("alice", workflow.RoleUser)
	_, errRole = f.svc.Users.SetRole(f.ctx, alice, f.admin.ID, workflow.RoleUser)
	requireKind(t, errRole, workflow.KindForbidden)

	promoted, errPromote := f.svc.Users.SetRole(f.ctx, f.admin, alice.ID, workflow.RoleAdmin)
	if errPromote != nil {
		t.Fatalf("promote: %v", errPromote)
	}
	if promoted.Role != string(workflow.RoleAdmin) {
		t.Fatalf("expected admin role, got %s", promoted.Role)
	}
	actor, errActor := f.svc.Users.Actor(f.ctx, alice.ID)
	if errActor != nil || !actor.IsGlobalAdmin() {
		t.Fatalf("expected refreshed admin actor, got %+v %v", actor, errActor)
	}
}

func TestUpdateProfileOwnerOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", workflow.RoleUser)
	bob := f.user("bob", workflow.RoleUser)
	name := "Alice A."

	user, errUpdate := f.svc.Users.UpdateProfile(f.ctx, alice, alice.ID, ProfilePatch{Name: &name})
	if errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if user.Name != name {
		t.Fatalf("expected name %q, got %q", name, user.Name)
	}
	_, errUpdate = f.svc.Users.UpdateProfile(f.ctx, bob, alice.ID, ProfilePatch{Name: &name})
	requireKind(t, errUpdate, workflow.KindForbidden)

	list, errList := f.svc.Users.List(f.ctx, f.admin, UserFilter{Search: "ALI"})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(list) != 1 || list[0].ID != alice.ID {
		t.Fatalf("expected search to match alice, got %d users", len(list))
	}
}

func TestTOTPEnrollment(t *testing.T) {
	defer security.SetHashCostForTesting(bcrypt.MinCost)()
	f := newFixture(t)
	user, errRegister := f.svc.Users.Register(f.ctx, RegisterInput{Username: "alice", Password: "correct-horse"})
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	actor := workflow.Actor{ID: user.ID, Role: workflow.RoleUser}

	enrollment, errBegin := f.svc.Users.BeginTOTP(f.ctx, actor)
	if errBegin != nil {
		t.Fatalf("begin: %v", errBegin)
	}
	requireKind(t, f.svc.Users.ConfirmTOTP(f.ctx, actor, "000000x"), workflow.KindInvalid)
	code, errCode := totp.GenerateCode(enrollment.Secret, time.Now())
	if errCode != nil {
		t.Fatalf("generate code: %v", errCode)
	}
	if errConfirm := f.svc.Users.ConfirmTOTP(f.ctx, actor, code); errConfirm != nil {
		t.Fatalf("confirm: %v", errConfirm)
	}

	_, errAuth := f.svc.Users.Authenticate(f.ctx, "alice", "correct-horse", "")
	if errAuth != ErrMFARequired {
		t.Fatalf("expected mfa required, got %v", errAuth)
	}
	if _, errAuth = f.svc.Users.Authenticate(f.ctx, "alice", "correct-horse", code); errAuth != nil {
		t.Fatalf("authenticate with code: %v", errAuth)
	}
}
