package services

import "projectdesk/internal/models"

// Допустимые переходы статусов задачи.
// Closed → Open это "reopen" из карточки задачи.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusOpen:       {models.StatusInProgress: true, models.StatusPending: true, models.StatusClosed: true},
	models.StatusInProgress: {models.StatusOpen: true, models.StatusPending: true, models.StatusClosed: true},
	models.StatusPending:    {models.StatusOpen: true, models.StatusInProgress: true, models.StatusClosed: true},
	models.StatusClosed:     {models.StatusOpen: true},
}

func canTransition(current, to models.TaskStatus, table map[models.TaskStatus]map[models.TaskStatus]bool) bool {
	if current == "" {
		// если в БД пусто, разрешим любой известный статус
		_, ok := table[to]
		return ok
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}

// percentageFor returns the completion a task gets when it lands in status to.
func percentageFor(to models.TaskStatus, current float64) float64 {
	switch to {
	case models.StatusClosed:
		return 100
	case models.StatusOpen:
		return 0
	}
	return current
}
