package models

import "time"

// GenericTaskCriteria filters generic task queries. Every non-empty field
// narrows the result; Types and TypeIDs combine conjunctively.
type GenericTaskCriteria struct {
	Types       []AssignmentType
	TypeIDs     []int64
	SAccountID  *int64
	ProjectIDs  []int64
	Assignee    *string
	Name        *string // substring match on name
	MilestoneID *int64
	IsOpen      bool
	IsOverdue   bool
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Sort        string // "due_date", "-due_date", "name", "-last_updated_time"

	// Now anchors IsOverdue; zero means time.Now().
	Now time.Time
}

// Includes reports whether rows of type t may match the criteria.
func (c GenericTaskCriteria) Includes(t AssignmentType) bool {
	if len(c.Types) == 0 {
		return true
	}
	for _, v := range c.Types {
		if v == t {
			return true
		}
	}
	return false
}

// ReferenceTime returns Now, or the current time when Now is unset.
func (c GenericTaskCriteria) ReferenceTime() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}
