package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/streethall/hoa/internal/models"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	return conn
}

func TestMigrateCreatesWorkflowTables(t *testing.T) {
	conn := openMemory(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{
		"users", "groups", "group_memberships", "polls", "poll_options", "votes",
		"fundraising_campaigns", "contributions", "payment_requests", "payment_reports",
		"events", "posts", "settings", "activity_logs",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"goal_amount", "amount", "status", "closed_at"} {
		if !conn.Migrator().HasColumn(&models.PaymentRequest{}, column) {
			t.Fatalf("payment_requests missing column %s", column)
		}
	}
	for _, column := range []string{"payment_request_id", "group_id", "submitted_by", "confirmed_by"} {
		if !conn.Migrator().HasColumn(&models.PaymentReport{}, column) {
			t.Fatalf("payment_reports missing column %s", column)
		}
	}
}

func TestMigrateEnforcesOneVotePerGroup(t *testing.T) {
	conn := openMemory(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	first := models.Vote{PollID: 1, GroupID: 1, OptionID: 1, UserID: 1}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create vote: %v", errCreate)
	}
	second := models.Vote{PollID: 1, GroupID: 1, OptionID: 2, UserID: 2}
	if errCreate := conn.Create(&second).Error; errCreate == nil {
		t.Fatalf("expected unique violation for second vote of the same group")
	}
}

func TestMigrateEnforcesUniqueMembership(t *testing.T) {
	conn := openMemory(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	row := models.GroupMembership{GroupID: 1, UserID: 1, Status: "active"}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create membership: %v", errCreate)
	}
	dup := models.GroupMembership{GroupID: 1, UserID: 1, Status: "inactive"}
	if errCreate := conn.Create(&dup).Error; errCreate == nil {
		t.Fatalf("expected unique violation for duplicate membership")
	}
}

func TestDetectDialectFromDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/hoa": DialectPostgres,
		"host=localhost dbname=hoa":    DialectPostgres,
		"file:data/hoa.db":             DialectSQLite,
		"sqlite://data/hoa.db":         DialectSQLite,
		"data/hoa.db":                  DialectSQLite,
		"file::memory:?cache=shared":   DialectSQLite,
	}
	for dsn, want := range cases {
		got, err := detectDialectFromDSN(dsn)
		if err != nil {
			t.Fatalf("detectDialectFromDSN(%q): %v", dsn, err)
		}
		if got != want {
			t.Fatalf("detectDialectFromDSN(%q) = %q, want %q", dsn, got, want)
		}
	}
	if _, err := detectDialectFromDSN("mysql://localhost/hoa"); err == nil {
		t.Fatalf("expected mysql dsn to be rejected")
	}
}

func TestSQLitePathFromDSN(t *testing.T) {
	cases := map[string]string{
		"file:data/hoa.db?_pragma=foreign_keys(1)": "data/hoa.db",
		"file::memory:":                            "",
		"file:test?mode=memory&cache=shared":       "",
		"data/hoa.db":                              "data/hoa.db",
		":memory:":                                 "",
	}
	for dsn, want := range cases {
		if got := sqlitePathFromDSN(dsn); got != want {
			t.Fatalf("sqlitePathFromDSN(%q) = %q, want %q", dsn, got, want)
		}
	}
}
