package front

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/streethall/hoa/internal/config"
	dbutil "github.com/streethall/hoa/internal/db"
	"github.com/streethall/hoa/internal/security"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	svc    *service.Services
	admin  workflow.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Cleanup(security.SetHashCostForTesting(4))

	dsn := fmt.Sprintf("file:front_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	svc := service.New(conn, nil)
	admin, _, errAdmin := svc.Users.EnsureAdmin(context.Background(), service.RegisterInput{Username: "admin", Password: "admin-password"})
	if errAdmin != nil {
		t.Fatalf("ensure admin: %v", errAdmin)
	}

	engine := gin.New()
	RegisterFrontRoutes(engine, svc, config.JWTConfig{Secret: "front-test-secret-0123456789", Expiry: time.Hour})
	return &testServer{
		t:      t,
		engine: engine,
		svc:    svc,
		admin:  workflow.Actor{ID: admin.ID, Role: workflow.RoleAdmin},
	}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			s.t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if errUnmarshal := json.Unmarshal(rec.Body.Bytes(), &payload); errUnmarshal != nil {
			s.t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), errUnmarshal)
		}
	}
	return rec, payload
}

// resident registers and signs in a resident, returning the actor and token.
func (s *testServer) resident(username string) (workflow.Actor, string) {
	s.t.Helper()
	rec, payload := s.do(http.MethodPost, "/v0/front/register", "", map[string]any{
		"username": username,
		"password": "resident-password",
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	id := uint64(payload["id"].(float64))

	rec, payload = s.do(http.MethodPost, "/v0/front/login", "", map[string]any{
		"username": username,
		"password": "resident-password",
	})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	token, _ := payload["token"].(string)
	if token == "" {
		s.t.Fatalf("login %s: missing token", username)
	}
	return workflow.Actor{ID: id, Role: workflow.RoleUser}, token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.resident("alice")

	rec, payload := s.do(http.MethodPost, "/v0/front/login", "", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if payload["error"] == "" {
		t.Fatalf("missing error message")
	}
}

func TestAuthedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/v0/front/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/v0/front/profile", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestDeactivatedUserTokenStopsWorking(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.resident("alice")

	if rec, _ := s.do(http.MethodGet, "/v0/front/profile", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("profile before deactivation: status = %d", rec.Code)
	}
	if _, errSet := s.svc.Users.SetStatus(context.Background(), s.admin, alice.ID, workflow.UserInactive); errSet != nil {
		t.Fatalf("deactivate: %v", errSet)
	}
	if rec, _ := s.do(http.MethodGet, "/v0/front/profile", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("profile after deactivation: status = %d, want 403", rec.Code)
	}
}

func TestPaymentReportFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice, aliceToken := s.resident("alice")
	bob, bobToken := s.resident("bob")

	group, errGroup := s.svc.Groups.Create(ctx, s.admin, service.GroupInput{Name: "House 1"})
	if errGroup != nil {
		t.Fatalf("create group: %v", errGroup)
	}
	if _, errAdd := s.svc.Groups.AddMember(ctx, s.admin, group.ID, alice.ID); errAdd != nil {
		t.Fatalf("add member: %v", errAdd)
	}
	other, errOther := s.svc.Groups.Create(ctx, s.admin, service.GroupInput{Name: "House 2"})
	if errOther != nil {
		t.Fatalf("create second group: %v", errOther)
	}
	if _, errAdd := s.svc.Groups.AddMember(ctx, s.admin, other.ID, bob.ID); errAdd != nil {
		t.Fatalf("add member: %v", errAdd)
	}
	request, errCreate := s.svc.PaymentRequests.Create(ctx, s.admin, service.GoalInput{Title: "Snow removal", GoalAmount: 300})
	if errCreate != nil {
		t.Fatalf("create request: %v", errCreate)
	}

	rec, payload := s.do(http.MethodGet, "/v0/front/payment-requests", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	items, _ := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("list: got %d items, want 1", len(items))
	}
	if amount := items[0].(map[string]any)["amount"]; amount != 150.0 {
		t.Fatalf("amount = %v, want 150", amount)
	}

	reportPath := fmt.Sprintf("/v0/front/payment-requests/%d/reports", request.ID)
	body := map[string]any{"group_id": group.ID, "amount": 150, "method": "cash"}

	rec, _ = s.do(http.MethodPost, reportPath, bobToken, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-member submit: status = %d, want 403", rec.Code)
	}

	rec, payload = s.do(http.MethodPost, reportPath, aliceToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status = %d body %s", rec.Code, rec.Body.String())
	}
	if payload["status"] != "submitted" {
		t.Fatalf("status = %v, want submitted", payload["status"])
	}
	if payload["payment_request_id"] != float64(request.ID) {
		t.Fatalf("payment_request_id = %v, want %d", payload["payment_request_id"], request.ID)
	}

	rec, _ = s.do(http.MethodPost, reportPath, aliceToken, map[string]any{"group_id": group.ID, "amount": 150, "method": "wire_transfer"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wire without reference: status = %d, want 422", rec.Code)
	}

	rec, payload = s.do(http.MethodGet, fmt.Sprintf("/v0/front/payment-requests/%d/progress", request.ID), aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: status = %d", rec.Code)
	}
	if payload["contributing_groups"] != 1.0 || payload["group_percent"] != 50.0 {
		t.Fatalf("progress = %v", payload)
	}
}

func TestDraftPollIsHiddenFromResidents(t *testing.T) {
	s := newTestServer(t)
	_, token := s.resident("alice")

	poll, errCreate := s.svc.Polls.Create(context.Background(), s.admin, service.PollInput{
		Title:   "Paint color",
		Options: []service.OptionInput{{Label: "Blue"}, {Label: "Green"}},
	})
	if errCreate != nil {
		t.Fatalf("create poll: %v", errCreate)
	}

	rec, _ := s.do(http.MethodGet, fmt.Sprintf("/v0/front/polls/%d", poll.ID), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft poll: status = %d, want 404", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/v0/front/polls/abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d, want 400", rec.Code)
	}
}
