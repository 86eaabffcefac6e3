package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
	"github.com/google/uuid"
)

// SaveImageRecord stores the result of an image generation or edit
func SaveImageRecord(record *models.ImageRecord) error {
	if err := record.MarshalSettings(); err != nil {
		return fmt.Errorf("failed to marshal image settings: %w", err)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO generated_images (id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if dbType == "postgres" {
		query = `INSERT INTO generated_images (id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	}

	if _, err := dbConn.Exec(query, record.ID, record.AccountID, record.ProjectID,
		record.URL, record.Kind, record.Prompt, record.SettingsJSON,
		record.ArchiveKey, record.CreatedAt); err != nil {
		return storageErr("save image record", err)
	}
	return nil
}

// ListRecentImages returns the account's saved images, newest first
func ListRecentImages(accountID int64, limit int) ([]*models.ImageRecord, error) {
	query := `SELECT id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at
		FROM generated_images WHERE account_id = ? ORDER BY created_at DESC LIMIT ?`
	if dbType == "postgres" {
		query = `SELECT id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at
		FROM generated_images WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`
	}

	rows, err := dbConn.Query(query, accountID, limit)
	if err != nil {
		return nil, storageErr("list images", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		record := &models.ImageRecord{}
		err := rows.Scan(&record.ID, &record.AccountID, &record.ProjectID,
			&record.URL, &record.Kind, &record.Prompt, &record.SettingsJSON,
			&record.ArchiveKey, &record.CreatedAt)
		if err != nil {
			return nil, storageErr("list images", err)
		}
		if err := record.UnmarshalSettings(); err != nil {
			record.Settings = map[string]interface{}{}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list images", err)
	}
	return records, nil
}

// GetImageRecord fetches one image record by id
func GetImageRecord(id string) (*models.ImageRecord, error) {
	query := `SELECT id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at
		FROM generated_images WHERE id = ?`
	if dbType == "postgres" {
		query = `SELECT id, account_id, project_id, url, kind, prompt, settings, archive_key, created_at
		FROM generated_images WHERE id = $1`
	}

	record := &models.ImageRecord{}
	err := dbConn.QueryRow(query, id).Scan(&record.ID, &record.AccountID, &record.ProjectID,
		&record.URL, &record.Kind, &record.Prompt, &record.SettingsJSON,
		&record.ArchiveKey, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get image record", err)
	}
	if err := record.UnmarshalSettings(); err != nil {
		record.Settings = map[string]interface{}{}
	}
	return record, nil
}

// SetImageArchiveKey records the object storage key for an archived copy
func SetImageArchiveKey(id, archiveKey string) error {
	query := `UPDATE generated_images SET archive_key = ? WHERE id = ?`
	if dbType == "postgres" {
		query = `UPDATE generated_images SET archive_key = $1 WHERE id = $2`
	}

	result, err := dbConn.Exec(query, archiveKey, id)
	if err != nil {
		return storageErr("set image archive key", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("set image archive key", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
