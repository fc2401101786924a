package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/Dljdd/AgentHack25/internal/config"
	"github.com/Dljdd/AgentHack25/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens a fresh in-memory database with the full schema.
// Each call gets its own named shared-cache DB so pooled connections
// see the same data without leaking between tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testPricing() *Pricing {
	return NewPricing(&config.PricingConfig{})
}
