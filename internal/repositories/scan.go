package repositories

import (
	"database/sql"
	"time"

	"projectdesk/internal/models"
)

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTask reads columns in taskColumns order.
func scanTask(row scannable) (*models.Task, error) {
	var (
		t          models.Task
		parentID   sql.NullInt64
		milestone  sql.NullInt64
		startDate  sql.NullTime
		endDate    sql.NullTime
		dueDate    sql.NullTime
		assignUser sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.SAccountID, &t.ProjectID, &parentID, &milestone, &t.Name, &t.Description,
		&t.Status, &t.Priority, &t.PercentageComplete, &startDate, &endDate, &dueDate,
		&assignUser, &t.LogBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ParentTaskID = int64Ptr(parentID)
	t.MilestoneID = int64Ptr(milestone)
	t.StartDate = timePtr(startDate)
	t.EndDate = timePtr(endDate)
	t.DueDate = timePtr(dueDate)
	t.AssignUser = assignUser.String
	return &t, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
