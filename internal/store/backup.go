package store

import (
	"fmt"
	"io"
	"os"
	"time"

	"uiscout/internal/logging"
)

// CreateBackup copies the database file aside before destructive operations
// like relearn or delete. Returns the backup path.
func CreateBackup(dbPath string) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "CreateBackup")
	defer timer.Stop()

	timestamp := time.Now().Format("20060102_150405")
	backupPath := dbPath + fmt.Sprintf(".backup_%s", timestamp)

	logging.Store("Creating database backup: %s -> %s", dbPath, backupPath)

	src, err := os.Open(dbPath)
	if err != nil {
		logging.StoreError("Failed to open source database for backup: %v", err)
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		logging.StoreError("Failed to create backup file: %v", err)
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	bytesCopied, err := io.Copy(dst, src)
	if err != nil {
		logging.StoreError("Failed to copy database to backup: %v", err)
		return "", fmt.Errorf("failed to copy database to backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		logging.StoreError("Failed to sync backup to disk: %v", err)
		return "", fmt.Errorf("failed to sync backup to disk: %w", err)
	}

	logging.Store("Database backup created: %s (%d bytes)", backupPath, bytesCopied)
	return backupPath, nil
}

// RestoreBackup replaces the database file with a backup copy. The store
// must not be open while restoring.
func RestoreBackup(dbPath, backupPath string) error {
	timer := logging.StartTimer(logging.CategoryStore, "RestoreBackup")
	defer timer.Stop()

	logging.Store("Restoring database from backup: %s -> %s", backupPath, dbPath)

	src, err := os.Open(backupPath)
	if err != nil {
		logging.StoreError("Failed to open backup file for restore: %v", err)
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dbPath)
	if err != nil {
		logging.StoreError("Failed to create database file during restore: %v", err)
		return fmt.Errorf("failed to create database file: %w", err)
	}
	defer dst.Close()

	bytesCopied, err := io.Copy(dst, src)
	if err != nil {
		logging.StoreError("Failed to restore from backup: %v", err)
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		logging.StoreError("Failed to sync restored database: %v", err)
		return fmt.Errorf("failed to sync restored database: %w", err)
	}

	logging.Store("Database restored from backup (%d bytes)", bytesCopied)
	return nil
}
