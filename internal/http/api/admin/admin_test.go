package admin

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
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/security"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/settings"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

const testSecret = "admin-test-secret-0123456789"

type testServer struct {
	t          *testing.T
	engine     *gin.Engine
	db         *gorm.DB
	svc        *service.Services
	adminToken string
	userToken  string
	userID     uint64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Cleanup(security.SetHashCostForTesting(4))

	dsn := fmt.Sprintf("file:admin_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	svc := service.New(conn, nil)
	s := &testServer{t: t, db: conn, svc: svc}
	s.adminToken, _ = s.account("admin", workflow.RoleAdmin)
	s.userToken, s.userID = s.account("alice", workflow.RoleUser)

	s.engine = gin.New()
	RegisterAdminRoutes(s.engine, Deps{
		DB:       conn,
		Services: svc,
		JWT:      config.JWTConfig{Secret: testSecret, Expiry: time.Hour},
	})
	return s
}

func (s *testServer) account(username string, role workflow.Role) (string, uint64) {
	s.t.Helper()
	row := models.User{Username: username, Password: "x", Role: string(role), Status: string(workflow.UserActive)}
	if errCreate := s.db.Create(&row).Error; errCreate != nil {
		s.t.Fatalf("create %s: %v", username, errCreate)
	}
	token, errToken := security.GenerateToken(testSecret, row.ID, row.Username, row.Role, time.Hour)
	if errToken != nil {
		s.t.Fatalf("token for %s: %v", username, errToken)
	}
	return token, row.ID
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	raw := []byte(nil)
	if body != nil {
		var errMarshal error
		if raw, errMarshal = json.Marshal(body); errMarshal != nil {
			s.t.Fatalf("marshal body: %v", errMarshal)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
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

func TestHealthzIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec, payload := s.do(http.MethodGet, "/v0/admin/healthz", "", nil)
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("healthz: status %d payload %v", rec.Code, payload)
	}
	if _, ok := payload["redis"]; ok {
		t.Fatalf("redis reported without a client: %v", payload)
	}
}

func TestResidentsCannotReachAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	paths := []string{"/v0/admin/users", "/v0/admin/groups", "/v0/admin/settings", "/v0/admin/activity"}
	for _, path := range paths {
		if rec, _ := s.do(http.MethodGet, path, s.userToken, nil); rec.Code != http.StatusForbidden {
			t.Fatalf("GET %s as resident: status = %d, want 403", path, rec.Code)
		}
		if rec, _ := s.do(http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s anonymously: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestPollLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec, poll := s.do(http.MethodPost, "/v0/admin/polls", s.adminToken, map[string]any{
		"title":   "New fence",
		"options": []map[string]any{{"label": "Wood"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create poll: status %d body %s", rec.Code, rec.Body.String())
	}
	pollID := uint64(poll["id"].(float64))
	base := fmt.Sprintf("/v0/admin/polls/%d", pollID)

	rec, _ = s.do(http.MethodPost, base+"/options", s.adminToken, map[string]any{"label": "Metal", "amount": 1200})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add option: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, launched := s.do(http.MethodPost, base+"/transition", s.adminToken, map[string]any{"action": "launch"})
	if rec.Code != http.StatusOK || launched["status"] != string(workflow.PollActive) {
		t.Fatalf("launch: status %d payload %v", rec.Code, launched)
	}

	rec, _ = s.do(http.MethodPost, base+"/options", s.adminToken, map[string]any{"label": "Stone"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("add option to active poll: status = %d, want 422", rec.Code)
	}

	rec, _ = s.do(http.MethodPost, base+"/transition", s.adminToken, map[string]any{"action": "launch"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("relaunch: status = %d, want 422", rec.Code)
	}

	rec, results := s.do(http.MethodGet, base+"/results", s.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results: status %d", rec.Code)
	}
	if options, _ := results["options"].([]any); len(options) != 2 {
		t.Fatalf("results options = %v", results["options"])
	}
}

func TestSubmissionReviewOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice := workflow.Actor{ID: s.userID, Role: workflow.RoleUser}

	rec, group := s.do(http.MethodPost, "/v0/admin/groups", s.adminToken, map[string]any{"name": "House 7"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: status %d body %s", rec.Code, rec.Body.String())
	}
	groupID := uint64(group["id"].(float64))
	rec, _ = s.do(http.MethodPost, fmt.Sprintf("/v0/admin/groups/%d/members", groupID), s.adminToken, map[string]any{"user_id": s.userID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, campaign := s.do(http.MethodPost, "/v0/admin/campaigns", s.adminToken, map[string]any{"title": "Playground", "goal_amount": 500})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign: status %d body %s", rec.Code, rec.Body.String())
	}
	campaignID := uint64(campaign["id"].(float64))

	contribution, errSubmit := s.svc.Campaigns.Submit(ctx, alice, campaignID, service.SubmissionInput{
		GroupID: groupID,
		Amount:  500,
		Method:  workflow.PaymentCash,
	})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}

	statusPath := fmt.Sprintf("/v0/admin/campaigns/%d/contributions/%d/status", campaignID, contribution.ID)
	rec, reviewed := s.do(http.MethodPut, statusPath, s.adminToken, map[string]any{"status": "confirmed"})
	if rec.Code != http.StatusOK || reviewed["status"] != "confirmed" || reviewed["confirmed_by"] == nil {
		t.Fatalf("confirm: status %d payload %v", rec.Code, reviewed)
	}

	rec, progress := s.do(http.MethodGet, fmt.Sprintf("/v0/admin/campaigns/%d/progress", campaignID), s.adminToken, nil)
	if rec.Code != http.StatusOK || progress["collected_percent"] != 100.0 {
		t.Fatalf("progress: status %d payload %v", rec.Code, progress)
	}

	rec, _ = s.do(http.MethodPost, fmt.Sprintf("/v0/admin/campaigns/%d/close", campaignID), s.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: status %d", rec.Code)
	}
	rec, _ = s.do(http.MethodPut, statusPath, s.adminToken, map[string]any{"status": "rejected"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("review after close: status = %d, want 422", rec.Code)
	}

	rec, _ = s.do(http.MethodDelete, fmt.Sprintf("/v0/admin/groups/%d", groupID), s.adminToken, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("delete referenced group: status = %d, want 422", rec.Code)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := newTestServer(t)
	t.Cleanup(func() { settings.Store(time.Time{}, nil) })

	rec, _ := s.do(http.MethodPut, "/v0/admin/settings", s.adminToken, map[string]any{"UNKNOWN": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown key: status = %d, want 400", rec.Code)
	}

	rec, payload := s.do(http.MethodPut, "/v0/admin/settings", s.adminToken, map[string]any{settings.SiteNameKey: "Maple Court"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	values, _ := payload["settings"].(map[string]any)
	if values[settings.SiteNameKey] != "Maple Court" {
		t.Fatalf("settings = %v", payload["settings"])
	}
	if settings.SiteName() != "Maple Court" {
		t.Fatalf("snapshot site name = %q", settings.SiteName())
	}
}

func TestActivityListsRecordedChanges(t *testing.T) {
	s := newTestServer(t)
	if rec, _ := s.do(http.MethodPost, "/v0/admin/groups", s.adminToken, map[string]any{"name": "House 9"}); rec.Code != http.StatusCreated {
		t.Fatalf("create group: status %d", rec.Code)
	}
	rec, payload := s.do(http.MethodGet, "/v0/admin/activity?entity_type=group", s.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity: status %d", rec.Code)
	}
	if entries, _ := payload["activity"].([]any); len(entries) != 1 {
		t.Fatalf("activity entries = %v", payload["activity"])
	}

	rec, _ = s.do(http.MethodGet, "/v0/admin/activity/stream", s.adminToken, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("stream without broker: status = %d, want 503", rec.Code)
	}
}
