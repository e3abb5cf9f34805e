package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"projectdesk/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error

	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus, percentage float64) error
	UpdateAssignee(ctx context.Context, id int64, assignee string) error

	// Sub tasks (recursive over parent_task_id, one account only)
	CountOpenSubTasks(ctx context.Context, id, sAccountID int64) (int, error)
	IsSubTask(ctx context.Context, id, candidate, sAccountID int64) (bool, error)
	MassUpdateSubTaskStatuses(ctx context.Context, parentID int64, to models.TaskStatus, sAccountID int64) (int64, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, s_account_id, project_id, parent_task_id, milestone_id, name, description,
       status, priority, percentage_complete, start_date, end_date, due_date,
       assign_user, log_by, created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			s_account_id, project_id, parent_task_id, milestone_id, name, description,
			status, priority, percentage_complete, start_date, end_date, due_date,
			assign_user, log_by, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.SAccountID, task.ProjectID, nullInt64Ptr(task.ParentTaskID), nullInt64Ptr(task.MilestoneID),
		task.Name, task.Description, task.Status, task.Priority, task.PercentageComplete,
		nullTimePtr(task.StartDate), nullTimePtr(task.EndDate), nullTimePtr(task.DueDate),
		nullString(task.AssignUser), task.LogBy, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

// FindByID returns (nil, nil) when the task does not exist.
func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.SAccountID != 0 {
		conditions = append(conditions, fmt.Sprintf("s_account_id = $%d", argID))
		args = append(args, filter.SAccountID)
		argID++
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argID))
		args = append(args, *filter.ProjectID)
		argID++
	}
	if filter.ParentTaskID != nil {
		conditions = append(conditions, fmt.Sprintf("parent_task_id = $%d", argID))
		args = append(args, *filter.ParentTaskID)
		argID++
	}
	if filter.AssignUser != nil {
		conditions = append(conditions, fmt.Sprintf("assign_user = $%d", argID))
		args = append(args, *filter.AssignUser)
		argID++
	}
	if filter.LogBy != nil {
		conditions = append(conditions, fmt.Sprintf("log_by = $%d", argID))
		args = append(args, *filter.LogBy)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		baseQuery += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		baseQuery += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			parent_task_id=$1, milestone_id=$2, name=$3, description=$4, status=$5,
			priority=$6, percentage_complete=$7, start_date=$8, end_date=$9, due_date=$10,
			assign_user=$11, updated_at=$12
		WHERE id=$13`
	res, err := r.db.ExecContext(ctx, query,
		nullInt64Ptr(task.ParentTaskID), nullInt64Ptr(task.MilestoneID), task.Name, task.Description,
		task.Status, task.Priority, task.PercentageComplete,
		nullTimePtr(task.StartDate), nullTimePtr(task.EndDate), nullTimePtr(task.DueDate),
		nullString(task.AssignUser), task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}
	return expectAffected(res, task.ID)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return expectAffected(res, id)
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus, percentage float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, percentage_complete=$2, updated_at=NOW() WHERE id=$3`, to, percentage, id)
	if err != nil {
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	return expectAffected(res, id)
}

func (r *taskRepository) UpdateAssignee(ctx context.Context, id int64, assignee string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assign_user=$1, updated_at=NOW() WHERE id=$2`, nullString(assignee), id)
	if err != nil {
		return fmt.Errorf("update task %d assignee: %w", id, err)
	}
	return expectAffected(res, id)
}

// subTasksCTE walks descendants of $1 inside account $2 only.
const subTasksCTE = `
WITH RECURSIVE sub AS (
	SELECT id FROM tasks WHERE parent_task_id = $1 AND s_account_id = $2
	UNION
	SELECT t.id FROM tasks t JOIN sub ON t.parent_task_id = sub.id WHERE t.s_account_id = $2
)`

func (r *taskRepository) CountOpenSubTasks(ctx context.Context, id, sAccountID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, subTasksCTE+`
SELECT COUNT(*) FROM tasks WHERE id IN (SELECT id FROM sub) AND status <> 'Closed'`, id, sAccountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open sub tasks of %d: %w", id, err)
	}
	return n, nil
}

// IsSubTask reports whether candidate is a descendant of id.
func (r *taskRepository) IsSubTask(ctx context.Context, id, candidate, sAccountID int64) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, subTasksCTE+`
SELECT EXISTS (SELECT 1 FROM sub WHERE id = $3)`, id, sAccountID, candidate).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check sub task %d of %d: %w", candidate, id, err)
	}
	return found, nil
}

func (r *taskRepository) MassUpdateSubTaskStatuses(ctx context.Context, parentID int64, to models.TaskStatus, sAccountID int64) (int64, error) {
	percentage := 0.0
	if to == models.StatusClosed {
		percentage = 100
	}
	res, err := r.db.ExecContext(ctx, subTasksCTE+`
UPDATE tasks SET status=$3, percentage_complete=$4, updated_at=NOW()
WHERE id IN (SELECT id FROM sub) AND s_account_id=$2 AND status <> $3`,
		parentID, sAccountID, to, percentage)
	if err != nil {
		return 0, fmt.Errorf("mass update sub tasks of %d: %w", parentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, models.ErrTaskNotFound)
	}
	return nil
}
