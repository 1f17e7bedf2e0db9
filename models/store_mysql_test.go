//go:build integration

package models_test

import (
	"context"
	"testing"
	"time"

	"campusface/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/gorm"
)

func TestStoreAgainstMySQL(t *testing.T) {
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0.36",
		mysql.WithDatabase("campusface"),
		mysql.WithUsername("campus"),
		mysql.WithPassword("campus"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := models.Open("mysql", dsn)
	require.NoError(t, err)
	store := models.NewStore(db)

	s := models.Student{Name: "Asha", RollNo: "R1", ClassName: "X-A", Photo: "R1_a.jpg"}
	require.NoError(t, db.Create(&s).Error)

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	ok, err := store.RecordAttendance(ctx, models.NewAttendance(s.Id, at))
	require.NoError(t, err)
	assert.True(t, ok)

	// Bypass the existence check: the unique index must still hold.
	err = db.Create(&models.Attendance{StudentId: s.Id, Day: "2026-03-02", Time: at.Format(models.TimeLayout)}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	ids, err := store.MarkedStudentIDs(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, []int64{s.Id}, ids)
}
