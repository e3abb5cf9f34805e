package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"projectdesk/internal/models"
)

// ItemRelationsRepository reads followers, tags and logged time of a project item.
type ItemRelationsRepository interface {
	ListFollowers(ctx context.Context, itemType models.AssignmentType, itemID int64) ([]models.Follower, error)
	ListTags(ctx context.Context, itemType models.AssignmentType, itemID int64) ([]string, error)
	TotalLoggedHours(ctx context.Context, itemType models.AssignmentType, itemID int64) (float64, error)
}

type itemRelationsRepository struct {
	db *sql.DB
}

func NewItemRelationsRepository(db *sql.DB) ItemRelationsRepository {
	return &itemRelationsRepository{db: db}
}

func (r *itemRelationsRepository) ListFollowers(ctx context.Context, itemType models.AssignmentType, itemID int64) ([]models.Follower, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.username, COALESCE(u.display_name, f.username), f.created_at
		FROM followers f
		LEFT JOIN users u ON u.username = f.username
		WHERE f.type = $1 AND f.type_id = $2
		ORDER BY f.created_at ASC`,
		string(itemType), itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	defer rows.Close()

	out := []models.Follower{}
	for rows.Next() {
		var f models.Follower
		if err := rows.Scan(&f.Username, &f.DisplayName, &f.FollowedAt); err != nil {
			return nil, fmt.Errorf("scan follower: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *itemRelationsRepository) ListTags(ctx context.Context, itemType models.AssignmentType, itemID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM tags WHERE type = $1 AND type_id = $2 ORDER BY name`,
		string(itemType), itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *itemRelationsRepository) TotalLoggedHours(ctx context.Context, itemType models.AssignmentType, itemID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(hours), 0) FROM time_logs WHERE type = $1 AND type_id = $2`,
		string(itemType), itemID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum logged hours: %w", err)
	}
	return total, nil
}
