package checks

import (
	"errors"
	"testing"

	"connector-service/core/database"
	"connector-service/core/directory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}
	return gormDB, mock
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_Migrated(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, directory.Migrate(db))

	report, err := CheckSchema(db)
	require.NoError(t, err)
	assert.True(t, report.Matched, report)
	assert.Equal(t, "sqlite", report.Driver)
	assert.Equal(t, "ok", report.Tables["connectors"].Status)
	assert.Equal(t, "ok", report.Tables["sync_jobs"].Status)
}

func TestCheckSchema_MissingTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&directory.Connector{}))

	report, err := CheckSchema(db)
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, "ok", report.Tables["connectors"].Status)
	assert.Contains(t, report.Tables["sync_jobs"].MissingColumns, "last_seen")
}

func TestCheckSchema_MySQL(t *testing.T) {
	db, mock := setupMockDB(t)

	connectors := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "varchar(64)", "NO", "PRI", nil, "").
		AddRow("service_type", "varchar(32)", "YES", "MUL", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `connectors`").WillReturnRows(connectors)
	mock.ExpectQuery("SHOW COLUMNS FROM `sync_jobs`").WillReturnError(errors.New("table missing"))

	report, err := CheckSchema(db)
	require.NoError(t, err)
	assert.False(t, report.Matched)

	tbl := report.Tables["connectors"]
	assert.Equal(t, "error", tbl.Status)
	assert.Contains(t, tbl.MissingColumns, "configuration")
	assert.Contains(t, tbl.TypeMismatches, "service_type: expected varchar(64), got varchar(32)")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "sync_jobs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
