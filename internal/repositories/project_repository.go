package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// ProjectRepository answers ownership questions about projects and milestones.
type ProjectRepository interface {
	ExistsInAccount(ctx context.Context, projectID, sAccountID int64) (bool, error)
	MilestoneExistsInProject(ctx context.Context, milestoneID, projectID, sAccountID int64) (bool, error)
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ExistsInAccount(ctx context.Context, projectID, sAccountID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id=$1 AND s_account_id=$2)`, projectID, sAccountID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check project %d: %w", projectID, err)
	}
	return ok, nil
}

func (r *projectRepository) MilestoneExistsInProject(ctx context.Context, milestoneID, projectID, sAccountID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM milestones WHERE id=$1 AND project_id=$2 AND s_account_id=$3)`,
		milestoneID, projectID, sAccountID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check milestone %d: %w", milestoneID, err)
	}
	return ok, nil
}
