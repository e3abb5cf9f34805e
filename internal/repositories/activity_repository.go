package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"projectdesk/internal/models"
)

type ActivityRepository interface {
	Record(ctx context.Context, a *models.Activity) error
	ListByItem(ctx context.Context, itemType models.AssignmentType, itemID int64, limit int) ([]models.Activity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Record(ctx context.Context, a *models.Activity) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO activities (s_account_id, project_id, type, type_id, action, created_by, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		a.SAccountID, a.ProjectID, a.Type, a.TypeID, a.Action, a.CreatedBy, a.Detail,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListByItem returns the newest entries first.
func (r *activityRepository) ListByItem(ctx context.Context, itemType models.AssignmentType, itemID int64, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, s_account_id, project_id, type, type_id, action, created_by, detail, created_at
		FROM activities
		WHERE type = $1 AND type_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`,
		string(itemType), itemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.SAccountID, &a.ProjectID, &a.Type, &a.TypeID,
			&a.Action, &a.CreatedBy, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
