package db

import (
	"testing"

	"github.com/streethall/hoa/internal/models"
)

func TestLikeFilterMatchesCaseInsensitiveSubstring(t *testing.T) {
	conn := openMemory(t)
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("db handle: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	for _, name := range []string{"1 Elm Street", "2 Oak Lane", "ELMWOOD 3"} {
		if errCreate := conn.Create(&models.Group{Name: name}).Error; errCreate != nil {
			t.Fatalf("create %s: %v", name, errCreate)
		}
	}

	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	var matched []models.Group
	if errFind := LikeFilter(conn, conn.Model(&models.Group{}), "name", "  elm ").Order("id").Find(&matched).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(matched) != 2 || matched[0].Name != "1 Elm Street" || matched[1].Name != "ELMWOOD 3" {
		t.Fatalf("unexpected matches %+v", matched)
	}

	var all []models.Group
	if errFind := LikeFilter(conn, conn.Model(&models.Group{}), "name", " ").Find(&all).Error; errFind != nil {
		t.Fatalf("find all: %v", errFind)
	}
	if len(all) != 3 {
		t.Fatalf("expected blank term to skip the filter, got %d rows", len(all))
	}
}
