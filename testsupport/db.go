// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"fmt"
	"sync/atomic"
	"testing"

	"campusface/models"

	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database, migrates it and installs it
// as models.DB for the duration of the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:campusface_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := models.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	prev := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
