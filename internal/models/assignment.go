// internal/models/assignment.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// AssignmentType is the discriminator of a generic task. Only the four
// values below exist; each one is backed by its own table.
type AssignmentType string

const (
	AssignmentTask      AssignmentType = "Task"
	AssignmentBug       AssignmentType = "Bug"
	AssignmentRisk      AssignmentType = "Risk"
	AssignmentMilestone AssignmentType = "Milestone"
)

// AssignmentTypes lists every known discriminator in a stable order.
var AssignmentTypes = []AssignmentType{
	AssignmentRisk,
	AssignmentBug,
	AssignmentTask,
	AssignmentMilestone,
}

func (t AssignmentType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the four known discriminators.
func (t AssignmentType) IsValid() bool {
	switch t {
	case AssignmentTask, AssignmentBug, AssignmentRisk, AssignmentMilestone:
		return true
	}
	return false
}

// ParseAssignmentType accepts the canonical name ("Bug") or its lower-case
// alias ("bug", "project-bug").
func ParseAssignmentType(s string) (AssignmentType, error) {
	v := strings.TrimSpace(s)
	if t := AssignmentType(v); t.IsValid() {
		return t, nil
	}
	switch strings.TrimPrefix(strings.ToLower(v), "project-") {
	case "task":
		return AssignmentTask, nil
	case "bug":
		return AssignmentBug, nil
	case "risk":
		return AssignmentRisk, nil
	case "milestone":
		return AssignmentMilestone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssignmentType, s)
}

// GenericTask is a read-only projection over a task, bug, risk or milestone.
// Exactly one of the facet pointers is set, the one matching Type.
type GenericTask struct {
	Type             AssignmentType `json:"type"`
	TypeID           int64          `json:"type_id"`
	ProjectID        int64          `json:"project_id"`
	ProjectShortName string         `json:"project_short_name"`
	SAccountID       int64          `json:"s_account_id"`
	Name             string         `json:"name"`
	Assignee         string         `json:"assignee,omitempty"`
	AssigneeFullName string         `json:"assignee_full_name,omitempty"`
	CreatedUser      string         `json:"created_user,omitempty"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	Status           string         `json:"status"`
	IsClosed         bool           `json:"is_closed"`
	CreatedTime      time.Time      `json:"created_time"`
	LastUpdatedTime  time.Time      `json:"last_updated_time"`

	Task      *TaskFacet      `json:"task,omitempty"`
	Bug       *BugFacet       `json:"bug,omitempty"`
	Risk      *RiskFacet      `json:"risk,omitempty"`
	Milestone *MilestoneFacet `json:"milestone,omitempty"`
}

// IsOverdue reports whether the assignment is still open past its due date.
func (g *GenericTask) IsOverdue(now time.Time) bool {
	return !g.IsClosed && g.DueDate != nil && g.DueDate.Before(now)
}

type TaskFacet struct {
	PercentageComplete float64 `json:"percentage_complete"`
	ParentTaskID       *int64  `json:"parent_task_id,omitempty"`
	Priority           string  `json:"priority"`
}

type BugFacet struct {
	Severity string `json:"severity"`
	Priority string `json:"priority"`
}

type RiskFacet struct {
	Probability string `json:"probability"`
	Consequence string `json:"consequence"`
}

type MilestoneFacet struct {
	StartDate *time.Time `json:"start_date,omitempty"`
}

// BillingAccount is the tenant that owns projects.
type BillingAccount struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Subdomain  string `json:"subdomain"`
	OwnerEmail string `json:"owner_email"`
}
