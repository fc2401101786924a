package models

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schemaTestDBCounter int64

func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&schemaTestDBCounter, 1)
	dsn := fmt.Sprintf("file:schematest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func tableDDL(t *testing.T, db *gorm.DB, table string) string {
	t.Helper()
	var ddl string
	err := db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).
		Scan(&ddl).Error
	if err != nil {
		t.Fatalf("failed to read DDL for %s: %v", table, err)
	}
	if ddl == "" {
		t.Fatalf("table %s not found in sqlite_master", table)
	}
	return ddl
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	db := newMigratedDB(t)

	for _, table := range []string{"usage_records", "customers", "agent_runs", "tool_calls", "billing_events"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s was not created", table)
		}
	}
}

func TestSchema_ChildRowsCascadeWithParent(t *testing.T) {
	db := newMigratedDB(t)

	cases := []struct {
		table  string
		parent string
	}{
		{"agent_runs", "customers"},
		{"billing_events", "customers"},
		{"tool_calls", "agent_runs"},
	}
	for _, tc := range cases {
		ddl := tableDDL(t, db, tc.table)
		if !strings.Contains(ddl, "REFERENCES `"+tc.parent+"`") &&
			!strings.Contains(ddl, "REFERENCES "+tc.parent) {
			t.Errorf("%s DDL has no foreign key to %s:\n%s", tc.table, tc.parent, ddl)
			continue
		}
		if !strings.Contains(strings.ToUpper(ddl), "ON DELETE CASCADE") {
			t.Errorf("%s foreign key is missing ON DELETE CASCADE:\n%s", tc.table, ddl)
		}
	}
}
