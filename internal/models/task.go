// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a project task.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "Open"
	StatusInProgress TaskStatus = "InProgress"
	StatusPending    TaskStatus = "Pending"
	StatusClosed     TaskStatus = "Closed"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

// Task is the write model of a project task.
type Task struct {
	ID                 int64        `json:"id"`
	SAccountID         int64        `json:"s_account_id"`
	ProjectID          int64        `json:"project_id"`
	ParentTaskID       *int64       `json:"parent_task_id,omitempty"`
	MilestoneID        *int64       `json:"milestone_id,omitempty"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Status             TaskStatus   `json:"status"`
	Priority           TaskPriority `json:"priority"`
	PercentageComplete float64      `json:"percentage_complete"`
	StartDate          *time.Time   `json:"start_date,omitempty"`
	EndDate            *time.Time   `json:"end_date,omitempty"`
	DueDate            *time.Time   `json:"due_date,omitempty"`
	AssignUser         string       `json:"assign_user,omitempty"`
	LogBy              string       `json:"log_by"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusClosed
}

// IsOverdue reports an open task whose due date is before now.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted() && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	SAccountID   int64
	ProjectID    *int64
	ParentTaskID *int64
	AssignUser   *string
	LogBy        *string
	Status       *TaskStatus
	Limit        int
	Offset       int
}

// PeopleInfo is the "created by / assigned to" block of a task.
type PeopleInfo struct {
	LogBy              string `json:"log_by"`
	LogByFullName      string `json:"log_by_full_name"`
	LogByAvatarID      string `json:"log_by_avatar_id,omitempty"`
	AssignUser         string `json:"assign_user,omitempty"`
	AssignUserFullName string `json:"assign_user_full_name,omitempty"`
	AssignUserAvatarID string `json:"assign_user_avatar_id,omitempty"`
}

// TaskDetail aggregates everything shown next to a task.
type TaskDetail struct {
	Task         *Task      `json:"task"`
	Parent       *Task      `json:"parent,omitempty"`
	People       PeopleInfo `json:"people"`
	Followers    []Follower `json:"followers"`
	Tags         []string   `json:"tags"`
	LoggedHours  float64    `json:"logged_hours"`
	Activities   []Activity `json:"activities"`
	IsOverdue    bool       `json:"is_overdue"`
	OpenSubTasks int        `json:"open_sub_tasks"`
}

type Follower struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	FollowedAt  time.Time `json:"followed_at"`
}

// Activity is an entry of a project item's activity stream.
type Activity struct {
	ID         int64     `json:"id"`
	SAccountID int64     `json:"s_account_id"`
	ProjectID  int64     `json:"project_id"`
	Type       string    `json:"type"`
	TypeID     int64     `json:"type_id"`
	Action     string    `json:"action"`
	CreatedBy  string    `json:"created_by"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToggleResult is returned by the quick close/reopen action.
type ToggleResult struct {
	Task         *Task `json:"task"`
	OpenSubTasks int   `json:"open_sub_tasks"`
}
