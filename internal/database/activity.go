package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
)

// counterColumns whitelists the counter names accepted by IncrementCounter.
var counterColumns = map[string]bool{
	models.CounterImagesGenerated: true,
	models.CounterImagesEdited:    true,
	models.CounterProjects:        true,
	models.CounterSessionMinutes:  true,
}

// InsertActivity appends one activity log entry. Entries are never updated
// or deleted afterwards.
func InsertActivity(entry *models.ActivityEntry) error {
	if err := entry.MarshalDetails(); err != nil {
		return fmt.Errorf("failed to marshal activity details: %w", err)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if dbType == "postgres" {
		err := dbConn.QueryRow(
			`INSERT INTO activity_logs (account_id, category, description, details, timestamp)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			entry.AccountID, entry.Category, entry.Description, entry.DetailsJSON, entry.Timestamp,
		).Scan(&entry.ID)
		if err != nil {
			return storageErr("insert activity", err)
		}
		return nil
	}

	result, err := dbConn.Exec(
		`INSERT INTO activity_logs (account_id, category, description, details, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		entry.AccountID, entry.Category, entry.Description, entry.DetailsJSON, entry.Timestamp,
	)
	if err != nil {
		return storageErr("insert activity", err)
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

// InsertActivityWithCounter appends an activity entry and bumps one usage
// counter in the same transaction, so the log and the aggregates cannot
// drift apart when an image operation is recorded.
func InsertActivityWithCounter(entry *models.ActivityEntry, counterName string, delta int64) error {
	if !counterColumns[counterName] {
		return fmt.Errorf("unknown counter: %s", counterName)
	}
	if err := entry.MarshalDetails(); err != nil {
		return fmt.Errorf("failed to marshal activity details: %w", err)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	tx, err := dbConn.Begin()
	if err != nil {
		return storageErr("log activity", err)
	}
	defer tx.Rollback()

	if dbType == "postgres" {
		err = tx.QueryRow(
			`INSERT INTO activity_logs (account_id, category, description, details, timestamp)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			entry.AccountID, entry.Category, entry.Description, entry.DetailsJSON, entry.Timestamp,
		).Scan(&entry.ID)
	} else {
		var result sql.Result
		result, err = tx.Exec(
			`INSERT INTO activity_logs (account_id, category, description, details, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			entry.AccountID, entry.Category, entry.Description, entry.DetailsJSON, entry.Timestamp,
		)
		if err == nil {
			entry.ID, _ = result.LastInsertId()
		}
	}
	if err != nil {
		return storageErr("insert activity", err)
	}

	if err := incrementCounterTx(tx, entry.AccountID, counterName, delta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("log activity", err)
	}
	return nil
}

// IncrementCounter atomically increases one named counter for an account
func IncrementCounter(accountID int64, counterName string, delta int64) error {
	if !counterColumns[counterName] {
		return fmt.Errorf("unknown counter: %s", counterName)
	}

	tx, err := dbConn.Begin()
	if err != nil {
		return storageErr("increment counter", err)
	}
	defer tx.Rollback()

	if err := incrementCounterTx(tx, accountID, counterName, delta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("increment counter", err)
	}
	return nil
}

// incrementCounterTx performs the counter update inside an open transaction.
// The counters row is created at account creation time; updating a missing
// row means the account does not exist.
func incrementCounterTx(tx *sql.Tx, accountID int64, counterName string, delta int64) error {
	var query string
	if dbType == "postgres" {
		query = fmt.Sprintf(
			"UPDATE usage_counters SET %s = %s + $1, updated_at = NOW() WHERE account_id = $2",
			counterName, counterName)
	} else {
		query = fmt.Sprintf(
			"UPDATE usage_counters SET %s = %s + ?, updated_at = ? WHERE account_id = ?",
			counterName, counterName)
	}

	var result sql.Result
	var err error
	if dbType == "postgres" {
		result, err = tx.Exec(query, delta, accountID)
	} else {
		result, err = tx.Exec(query, delta, time.Now().UTC(), accountID)
	}
	if err != nil {
		return storageErr("increment counter", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("increment counter", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecentActivities returns the account's activity entries, newest first
func ListRecentActivities(accountID int64, limit int) ([]*models.ActivityEntry, error) {
	query := `SELECT id, account_id, category, description, details, timestamp
		FROM activity_logs WHERE account_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`
	if dbType == "postgres" {
		query = `SELECT id, account_id, category, description, details, timestamp
		FROM activity_logs WHERE account_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`
	}

	rows, err := dbConn.Query(query, accountID, limit)
	if err != nil {
		return nil, storageErr("list activities", err)
	}
	defer rows.Close()

	var entries []*models.ActivityEntry
	for rows.Next() {
		entry := &models.ActivityEntry{}
		err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Category,
			&entry.Description, &entry.DetailsJSON, &entry.Timestamp)
		if err != nil {
			return nil, storageErr("list activities", err)
		}
		if err := entry.UnmarshalDetails(); err != nil {
			entry.Details = map[string]interface{}{}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list activities", err)
	}
	return entries, nil
}

// GetCounters returns the account's usage counters, or a zeroed row if none
// exists yet. A missing row is not an error.
func GetCounters(accountID int64) (*models.UsageCounters, error) {
	counters := &models.UsageCounters{AccountID: accountID}

	query := `SELECT account_id, images_generated, images_edited, projects, session_minutes, favorite_feature, updated_at
		FROM usage_counters WHERE account_id = ?`
	if dbType == "postgres" {
		query = `SELECT account_id, images_generated, images_edited, projects, session_minutes, favorite_feature, updated_at
		FROM usage_counters WHERE account_id = $1`
	}

	err := dbConn.QueryRow(query, accountID).Scan(
		&counters.AccountID, &counters.ImagesGenerated, &counters.ImagesEdited,
		&counters.Projects, &counters.SessionMinutes, &counters.FavoriteFeature,
		&counters.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return counters, nil
	}
	if err != nil {
		return nil, storageErr("get counters", err)
	}
	return counters, nil
}

// RecomputeFavoriteFeature derives the most-used feature label from the
// activity log and stores it on the counters row. Called periodically rather
// than on every write.
func RecomputeFavoriteFeature(accountID int64) error {
	query := `SELECT category, COUNT(*) AS uses FROM activity_logs
		WHERE account_id = ? AND category != ?
		GROUP BY category ORDER BY uses DESC LIMIT 1`
	if dbType == "postgres" {
		query = `SELECT category, COUNT(*) AS uses FROM activity_logs
		WHERE account_id = $1 AND category != $2
		GROUP BY category ORDER BY uses DESC LIMIT 1`
	}

	var category string
	var uses int64
	err := dbConn.QueryRow(query, accountID, models.ActivityAuthentication).Scan(&category, &uses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storageErr("recompute favorite feature", err)
	}

	update := "UPDATE usage_counters SET favorite_feature = ?, updated_at = ? WHERE account_id = ?"
	if dbType == "postgres" {
		update = "UPDATE usage_counters SET favorite_feature = $1, updated_at = NOW() WHERE account_id = $2"
	}
	if dbType == "postgres" {
		_, err = dbConn.Exec(update, category, accountID)
	} else {
		_, err = dbConn.Exec(update, category, time.Now().UTC(), accountID)
	}
	if err != nil {
		return storageErr("recompute favorite feature", err)
	}
	return nil
}
