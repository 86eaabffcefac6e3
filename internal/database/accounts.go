package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
	"github.com/google/uuid"
)

// CreateAccount inserts a new account together with its zeroed usage counters
// row. Both writes happen in one transaction so a counters row always exists
// for every account.
func CreateAccount(handle, email, passwordHash, fullName string) (*models.Account, error) {
	account := &models.Account{
		Handle:       handle,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
		AccountUUID:  uuid.NewString(),
	}

	tx, err := dbConn.Begin()
	if err != nil {
		return nil, storageErr("create account", err)
	}
	defer tx.Rollback()

	if dbType == "postgres" {
		err = tx.QueryRow(
			`INSERT INTO accounts (handle, email, password_hash, full_name, created_at, is_active, account_uuid)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			account.Handle, account.Email, account.PasswordHash, account.FullName,
			account.CreatedAt, account.IsActive, account.AccountUUID,
		).Scan(&account.ID)
	} else {
		var result sql.Result
		result, err = tx.Exec(
			`INSERT INTO accounts (handle, email, password_hash, full_name, created_at, is_active, account_uuid)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			account.Handle, account.Email, account.PasswordHash, account.FullName,
			account.CreatedAt, account.IsActive, account.AccountUUID,
		)
		if err == nil {
			account.ID, err = result.LastInsertId()
		}
	}
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, storageErr("create account", err)
	}

	var countersQuery string
	if dbType == "postgres" {
		countersQuery = "INSERT INTO usage_counters (account_id, updated_at) VALUES ($1, NOW())"
	} else {
		countersQuery = "INSERT INTO usage_counters (account_id, updated_at) VALUES (?, ?)"
	}
	if dbType == "postgres" {
		_, err = tx.Exec(countersQuery, account.ID)
	} else {
		_, err = tx.Exec(countersQuery, account.ID, time.Now().UTC())
	}
	if err != nil {
		return nil, storageErr("create usage counters", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("create account", err)
	}

	return account, nil
}

const accountColumns = "id, handle, email, password_hash, full_name, created_at, last_login, is_active, account_uuid"

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID, &account.Handle, &account.Email, &account.PasswordHash,
		&account.FullName, &account.CreatedAt, &account.LastLogin,
		&account.IsActive, &account.AccountUUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("load account", err)
	}
	return account, nil
}

// GetAccountByHandle retrieves an account by its handle (exact match)
func GetAccountByHandle(handle string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE handle = ?"
	if dbType == "postgres" {
		query = "SELECT " + accountColumns + " FROM accounts WHERE handle = $1"
	}
	return scanAccount(dbConn.QueryRow(query, handle))
}

// GetAccountByEmail retrieves an account by its email (exact match)
func GetAccountByEmail(email string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE email = ?"
	if dbType == "postgres" {
		query = "SELECT " + accountColumns + " FROM accounts WHERE email = $1"
	}
	return scanAccount(dbConn.QueryRow(query, email))
}

// GetAccountByID retrieves an account by its numeric ID
func GetAccountByID(id int64) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = ?"
	if dbType == "postgres" {
		query = "SELECT " + accountColumns + " FROM accounts WHERE id = $1"
	}
	return scanAccount(dbConn.QueryRow(query, id))
}

// UpdateLastLogin stamps the account's last successful authentication time
func UpdateLastLogin(accountID int64) error {
	query := "UPDATE accounts SET last_login = ? WHERE id = ?"
	if dbType == "postgres" {
		query = "UPDATE accounts SET last_login = $1 WHERE id = $2"
	}
	if _, err := dbConn.Exec(query, time.Now().UTC(), accountID); err != nil {
		return storageErr("update last login", err)
	}
	return nil
}

// UpdateProfile mutates the account's display name and email. Password
// changes go through UpdatePasswordHash instead.
func UpdateProfile(accountID int64, fullName, email string) error {
	query := "UPDATE accounts SET full_name = ?, email = ? WHERE id = ?"
	if dbType == "postgres" {
		query = "UPDATE accounts SET full_name = $1, email = $2 WHERE id = $3"
	}
	result, err := dbConn.Exec(query, fullName, email, accountID)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return storageErr("update profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("update profile", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordHash overwrites the stored credential hash
func UpdatePasswordHash(accountID int64, passwordHash string) error {
	query := "UPDATE accounts SET password_hash = ? WHERE id = ?"
	if dbType == "postgres" {
		query = "UPDATE accounts SET password_hash = $1 WHERE id = $2"
	}
	result, err := dbConn.Exec(query, passwordHash, accountID)
	if err != nil {
		return storageErr("update password", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("update password", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountActive flips the account's active flag. Accounts are never
// hard-deleted.
func SetAccountActive(accountID int64, active bool) error {
	query := "UPDATE accounts SET is_active = ? WHERE id = ?"
	if dbType == "postgres" {
		query = "UPDATE accounts SET is_active = $1 WHERE id = $2"
	}
	result, err := dbConn.Exec(query, active, accountID)
	if err != nil {
		return storageErr("set account active", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("set account active", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
