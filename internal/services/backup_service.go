package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// BackupServiceProvider defines the interface for database backup services.
type BackupServiceProvider interface {
	CreateBackup() (string, error)
}

// BackupService archives the SQLite database file into the backup directory
// and prunes old archives.
type BackupService struct {
	databasePath string
	backupPath   string
	keep         int
}

// NewBackupService creates a new BackupService.
func NewBackupService(databasePath, backupPath string, keep int) *BackupService {
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		log.Error().Err(err).Str("path", backupPath).Msg("Failed to create backup directory")
	}
	return &BackupService{
		databasePath: databasePath,
		backupPath:   backupPath,
		keep:         keep,
	}
}

// CreateBackup zips the database file into the backup directory and returns
// the archive path. Older archives beyond the retention limit are removed.
func (s *BackupService) CreateBackup() (string, error) {
	archiveName := fmt.Sprintf("spendtrack_%s.zip", time.Now().Format("20060102150405"))
	archivePath := filepath.Join(s.backupPath, archiveName)

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("could not create backup file: %w", err)
	}
	defer archiveFile.Close()

	zipWriter := zip.NewWriter(archiveFile)

	writer, err := zipWriter.Create(filepath.Base(s.databasePath))
	if err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("could not create zip entry: %w", err)
	}

	dbFile, err := os.Open(s.databasePath)
	if err != nil {
		zipWriter.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("could not open database file: %w", err)
	}
	defer dbFile.Close()

	if _, err := io.Copy(writer, dbFile); err != nil {
		zipWriter.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to archive database: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	if err := s.prune(); err != nil {
		log.Warn().Err(err).Msg("Failed to prune old backups")
	}

	log.Info().Str("path", archivePath).Msg("Database backup created")
	return archivePath, nil
}

// prune removes the oldest archives beyond the retention limit.
func (s *BackupService) prune() error {
	if s.keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		return err
	}

	var archives []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "spendtrack_") && strings.HasSuffix(entry.Name(), ".zip") {
			archives = append(archives, entry.Name())
		}
	}

	if len(archives) <= s.keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(archives)
	for _, name := range archives[:len(archives)-s.keep] {
		if err := os.Remove(filepath.Join(s.backupPath, name)); err != nil {
			return err
		}
	}
	return nil
}
