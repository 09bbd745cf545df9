package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
)

const (
	snapshotPrefix   = "shareit_"
	snapshotExt      = ".db"
	snapshotStamp    = "20060102T150405.000000000Z"
	defaultSnapshots = 24 * time.Hour
)

// BackupService takes periodic VACUUM INTO snapshots of the live database
// and prunes the ones older than the retention period.
type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start snapshots once, then on every tick of the schedule until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.config.StoragePath).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.PerformBackup(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Snapshot failed")
		}
		if _, err := s.CleanupOldBackups(); err != nil {
			s.logger.Warn().Err(err).Msg("Snapshot pruning failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// interval parses the schedule as a Go duration, falling back to daily.
func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return defaultSnapshots
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Invalid backup schedule, snapshotting daily")
		return defaultSnapshots
	}
	return d
}

// PerformBackup writes a consistent copy of the live database and returns
// its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(s.config.StoragePath, snapshotPrefix+s.now().Format(snapshotStamp)+snapshotExt)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Msg("Database snapshot written")
	return path, nil
}

// CleanupOldBackups deletes snapshots whose embedded timestamp is past the
// retention period and returns how many were removed. Other files in the
// directory are never touched.
func (s *BackupService) CleanupOldBackups() (int, error) {
	if s.config.RetentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	var errs []error
	for _, entry := range entries {
		taken, ok := snapshotTime(entry)
		if !ok || !taken.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		s.logger.Info().Str("file", entry.Name()).Msg("Old snapshot removed")
	}
	return removed, errors.Join(errs...)
}

func snapshotTime(entry os.DirEntry) (time.Time, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotExt) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotExt)
	t, err := time.Parse(snapshotStamp, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
