// Package backup implements the sqlite file-copy backup primitive. MySQL
// deployments are expected to use external tooling; Create refuses anything
// that is not a file-backed store.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/logger"
)

const backupTimeLayout = "20060102-150405"

type Service struct {
	config sharedConfig.BackupConfig
	dbPath string
	logger logger.Interface
}

func NewService(config sharedConfig.BackupConfig, dbPath string, log logger.Interface) *Service {
	return &Service{
		config: config,
		dbPath: dbPath,
		logger: log.Named("backup"),
	}
}

// Create copies the database file into the backup directory and returns the
// backup path.
func (s *Service) Create(ctx context.Context) (string, error) {
	if s.dbPath == "" {
		return "", fmt.Errorf("backup requires a file-backed database")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.config.Directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	source, err := os.Open(s.dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer source.Close()

	name := fmt.Sprintf("helpbot-%s.db", time.Now().Format(backupTimeLayout))
	target := filepath.Join(s.config.Directory, name)

	dest, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to copy database file: %w", err)
	}
	if err := dest.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize backup file: %w", err)
	}

	s.logger.Infow("backup created", "path", target)
	return target, nil
}

// Prune removes backup files older than the retention window and returns how
// many were deleted.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.config.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "helpbot-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.Directory, entry.Name())); err != nil {
			s.logger.Warnw("failed to remove old backup", "name", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
