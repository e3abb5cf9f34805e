package models

import "errors"

var (
	ErrInvalidAssignmentType = errors.New("invalid assignment type")
	ErrTaskNotFound          = errors.New("task not found")
	ErrIllegalTransition     = errors.New("illegal status transition")
	ErrProjectNotFound       = errors.New("project not found")
	ErrMilestoneNotFound     = errors.New("milestone not found")
)
