// Package testutil provides database fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with foreign keys enabled and the full
// schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))

	return db
}

// CreateUser inserts a user with the given first name and role.
func CreateUser(t *testing.T, db *gorm.DB, firstName string, role entity.Role) *entity.User {
	t.Helper()

	user := &entity.User{
		Email:        fmt.Sprintf("%s-%s@classhub.test", firstName, uuid.NewString()[:8]),
		FirstName:    firstName,
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateClassRoom inserts a classroom taught by teacher with the given students.
func CreateClassRoom(t *testing.T, db *gorm.DB, teacher *entity.User, students ...*entity.User) *entity.ClassRoom {
	t.Helper()

	room := &entity.ClassRoom{
		Name:      "Room " + uuid.NewString()[:4],
		Code:      uuid.NewString()[:8],
		TeacherID: teacher.ID,
	}
	require.NoError(t, db.Omit("Teacher", "Students").Create(room).Error)

	for _, s := range students {
		require.NoError(t, db.Model(room).Association("Students").Append(s))
	}

	require.NoError(t, db.Preload("Students").First(room, "id = ?", room.ID).Error)
	return room
}
