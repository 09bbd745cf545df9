package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "Ann", Email: "ann@example.com"}))

	storagePath := filepath.Join(t.TempDir(), "snapshots")
	s := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 7,
	}, nil)

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	path, err := s.PerformBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shareit_20260510T120000.000000000Z.db", filepath.Base(path))

	copyDB, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer copyDB.Close()

	var count int
	require.NoError(t, copyDB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)

	t.Run("prunes only expired snapshots", func(t *testing.T) {
		expired := filepath.Join(storagePath, "shareit_"+now.AddDate(0, 0, -8).Format(snapshotStamp)+".db")
		recent := filepath.Join(storagePath, "shareit_"+now.AddDate(0, 0, -6).Format(snapshotStamp)+".db")
		foreign := filepath.Join(storagePath, "notes.txt")
		malformed := filepath.Join(storagePath, "shareit_yesterday.db")
		for _, p := range []string{expired, recent, foreign, malformed} {
			require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		}

		removed, err := s.CleanupOldBackups()
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		assert.NoFileExists(t, expired)
		assert.FileExists(t, recent)
		assert.FileExists(t, foreign)
		assert.FileExists(t, malformed)
		assert.FileExists(t, path)
	})
}

func TestBackupServiceMissingDirectory(t *testing.T) {
	s := NewBackupService(nil, config.BackupConfig{
		StoragePath:   filepath.Join(t.TempDir(), "absent"),
		RetentionDays: 1,
	}, nil)

	removed, err := s.CleanupOldBackups()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestBackupServiceInterval(t *testing.T) {
	tests := []struct {
		schedule string
		want     time.Duration
	}{
		{"", 24 * time.Hour},
		{"6h", 6 * time.Hour},
		{"nightly", 24 * time.Hour},
		{"-1h", 24 * time.Hour},
	}
	for _, tt := range tests {
		s := NewBackupService(nil, config.BackupConfig{Schedule: tt.schedule}, nil)
		assert.Equal(t, tt.want, s.interval(), tt.schedule)
	}
}

func TestBackupServiceDisabled(_ *testing.T) {
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
