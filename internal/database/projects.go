package database

import (
	"database/sql"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/models"
)

// CreateProject inserts a project row and bumps the projects counter in the
// same transaction.
func CreateProject(accountID int64, name, description string) (*models.Project, error) {
	project := &models.Project{
		AccountID:   accountID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		IsActive:    true,
	}

	tx, err := dbConn.Begin()
	if err != nil {
		return nil, storageErr("create project", err)
	}
	defer tx.Rollback()

	if dbType == "postgres" {
		err = tx.QueryRow(
			`INSERT INTO projects (account_id, name, description, created_at, updated_at, is_active)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			project.AccountID, project.Name, project.Description,
			project.CreatedAt, project.UpdatedAt, project.IsActive,
		).Scan(&project.ID)
	} else {
		var result sql.Result
		result, err = tx.Exec(
			`INSERT INTO projects (account_id, name, description, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			project.AccountID, project.Name, project.Description,
			project.CreatedAt, project.UpdatedAt, project.IsActive,
		)
		if err == nil {
			project.ID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return nil, storageErr("create project", err)
	}

	if err := incrementCounterTx(tx, accountID, models.CounterProjects, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("create project", err)
	}
	return project, nil
}

// ListProjects returns the account's active projects, most recently updated first
func ListProjects(accountID int64) ([]*models.Project, error) {
	query := `SELECT id, account_id, name, description, created_at, updated_at, is_active
		FROM projects WHERE account_id = ? AND is_active = ? ORDER BY updated_at DESC`
	if dbType == "postgres" {
		query = `SELECT id, account_id, name, description, created_at, updated_at, is_active
		FROM projects WHERE account_id = $1 AND is_active = TRUE ORDER BY updated_at DESC`
	}

	var rows *sql.Rows
	var err error
	if dbType == "postgres" {
		rows, err = dbConn.Query(query, accountID)
	} else {
		rows, err = dbConn.Query(query, accountID, true)
	}
	if err != nil {
		return nil, storageErr("list projects", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		err := rows.Scan(&project.ID, &project.AccountID, &project.Name,
			&project.Description, &project.CreatedAt, &project.UpdatedAt, &project.IsActive)
		if err != nil {
			return nil, storageErr("list projects", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list projects", err)
	}
	return projects, nil
}
