package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"projectdesk/internal/models"
	"projectdesk/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
// Tasks outside the actor's account are reported as ErrTaskNotFound.
type TaskService interface {
	Create(ctx context.Context, task *models.Task, actor models.Actor) (*models.Task, error)
	GetByID(ctx context.Context, id int64, actor models.Actor) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id int64, updateData *models.Task, actor models.Actor) (*models.Task, error)
	Delete(ctx context.Context, id int64, actor models.Actor) error

	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus, actor models.Actor) (*models.Task, error)
	ToggleStatus(ctx context.Context, id int64, actor models.Actor) (*models.ToggleResult, error)
	UpdateAssignee(ctx context.Context, id int64, assignee string, actor models.Actor) (*models.Task, error)

	CountOpenSubTasks(ctx context.Context, id int64, actor models.Actor) (int, error)
	CloseSubTasks(ctx context.Context, id int64, actor models.Actor) (int64, error)

	GetDetail(ctx context.Context, id int64, actor models.Actor) (*models.TaskDetail, error)
}

type taskService struct {
	repo       repositories.TaskRepository
	projects   repositories.ProjectRepository
	users      repositories.UserRepository
	activities repositories.ActivityRepository
	relations  repositories.ItemRelationsRepository
	notifier   Notifier
	now        func() time.Time
}

// NewTaskService creates a new instance of TaskService. notifier may be nil.
func NewTaskService(
	repo repositories.TaskRepository,
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	activities repositories.ActivityRepository,
	relations repositories.ItemRelationsRepository,
	notifier Notifier,
) TaskService {
	return &taskService{
		repo:       repo,
		projects:   projects,
		users:      users,
		activities: activities,
		relations:  relations,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, task *models.Task, actor models.Actor) (*models.Task, error) {
	task.SAccountID = actor.SAccountID
	task.LogBy = actor.Username
	if task.Status == "" {
		task.Status = models.StatusOpen
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.PercentageComplete = percentageFor(task.Status, task.PercentageComplete)
	if err := s.checkProject(ctx, task.ProjectID, task.MilestoneID, actor); err != nil {
		return nil, err
	}
	if task.ParentTaskID != nil {
		if _, err := s.load(ctx, *task.ParentTaskID, actor); err != nil {
			return nil, fmt.Errorf("parent task: %w", err)
		}
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, task, actor, "create", "")
	if task.AssignUser != "" && task.AssignUser != actor.Username {
		s.notify(ctx, task.AssignUser, fmt.Sprintf("%s assigned you a task: <b>%s</b>", actor.Username, task.Name))
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64, actor models.Actor) (*models.Task, error) {
	return s.load(ctx, id, actor)
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, id int64, updateData *models.Task, actor models.Actor) (*models.Task, error) {
	existingTask, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if updateData.Status != "" && updateData.Status != existingTask.Status &&
		!canTransition(existingTask.Status, updateData.Status, TaskTransitions) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrIllegalTransition, existingTask.Status, updateData.Status)
	}
	if err := s.checkParent(ctx, existingTask, updateData.ParentTaskID, actor); err != nil {
		return nil, err
	}
	if updateData.MilestoneID != nil && !sameID(updateData.MilestoneID, existingTask.MilestoneID) {
		if err := s.checkProject(ctx, existingTask.ProjectID, updateData.MilestoneID, actor); err != nil {
			return nil, err
		}
	}
	previousAssignee := existingTask.AssignUser

	existingTask.ParentTaskID = updateData.ParentTaskID
	existingTask.MilestoneID = updateData.MilestoneID
	existingTask.Name = updateData.Name
	existingTask.Description = updateData.Description
	existingTask.StartDate = updateData.StartDate
	existingTask.EndDate = updateData.EndDate
	existingTask.DueDate = updateData.DueDate
	existingTask.AssignUser = updateData.AssignUser
	if updateData.Priority != "" {
		existingTask.Priority = updateData.Priority
	}
	if updateData.Status != "" && updateData.Status != existingTask.Status {
		existingTask.Status = updateData.Status
		existingTask.PercentageComplete = percentageFor(updateData.Status, updateData.PercentageComplete)
	} else {
		existingTask.PercentageComplete = updateData.PercentageComplete
	}
	existingTask.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existingTask); err != nil {
		return nil, err
	}
	s.record(ctx, existingTask, actor, "update", "")
	if existingTask.AssignUser != "" && existingTask.AssignUser != previousAssignee {
		s.notify(ctx, existingTask.AssignUser,
			fmt.Sprintf("%s assigned you a task: <b>%s</b>", actor.Username, existingTask.Name))
	}
	return existingTask, nil
}

func (s *taskService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, task, actor, "delete", task.Name)
	return nil
}

func (s *taskService) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus, actor models.Actor) (*models.Task, error) {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if task.Status == to {
		return task, nil
	}
	if !canTransition(task.Status, to, TaskTransitions) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrIllegalTransition, task.Status, to)
	}
	return s.setStatus(ctx, task, to, actor)
}

// ToggleStatus closes an open task or reopens a closed one. When it closes
// the task the result carries how many sub tasks are still open.
func (s *taskService) ToggleStatus(ctx context.Context, id int64, actor models.Actor) (*models.ToggleResult, error) {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	to := models.StatusClosed
	if task.IsCompleted() {
		to = models.StatusOpen
	}
	updated, err := s.setStatus(ctx, task, to, actor)
	if err != nil {
		return nil, err
	}
	res := &models.ToggleResult{Task: updated}
	if to == models.StatusClosed {
		n, err := s.repo.CountOpenSubTasks(ctx, id, actor.SAccountID)
		if err != nil {
			return nil, err
		}
		res.OpenSubTasks = n
	}
	return res, nil
}

func (s *taskService) setStatus(ctx context.Context, task *models.Task, to models.TaskStatus, actor models.Actor) (*models.Task, error) {
	from := task.Status
	pct := percentageFor(to, task.PercentageComplete)
	if err := s.repo.UpdateStatus(ctx, task.ID, to, pct); err != nil {
		return nil, err
	}
	task.Status = to
	task.PercentageComplete = pct
	task.UpdatedAt = s.now()

	s.record(ctx, task, actor, "status", fmt.Sprintf("%s -> %s", from, to))
	if task.AssignUser != "" && task.AssignUser != actor.Username {
		s.notify(ctx, task.AssignUser,
			fmt.Sprintf("%s moved <b>%s</b> to %s", actor.Username, task.Name, to))
	}
	return task, nil
}

func (s *taskService) UpdateAssignee(ctx context.Context, id int64, assignee string, actor models.Actor) (*models.Task, error) {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAssignee(ctx, id, assignee); err != nil {
		return nil, err
	}
	previous := task.AssignUser
	task.AssignUser = assignee
	task.UpdatedAt = s.now()

	s.record(ctx, task, actor, "assign", fmt.Sprintf("%s -> %s", previous, assignee))
	if assignee != "" && assignee != actor.Username {
		s.notify(ctx, assignee, fmt.Sprintf("%s assigned you a task: <b>%s</b>", actor.Username, task.Name))
	}
	return task, nil
}

func (s *taskService) CountOpenSubTasks(ctx context.Context, id int64, actor models.Actor) (int, error) {
	if _, err := s.load(ctx, id, actor); err != nil {
		return 0, err
	}
	return s.repo.CountOpenSubTasks(ctx, id, actor.SAccountID)
}

// CloseSubTasks closes every descendant of the task and returns how many rows changed.
func (s *taskService) CloseSubTasks(ctx context.Context, id int64, actor models.Actor) (int64, error) {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MassUpdateSubTaskStatuses(ctx, id, models.StatusClosed, actor.SAccountID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.record(ctx, task, actor, "close_sub_tasks", fmt.Sprintf("%d sub tasks closed", n))
	}
	return n, nil
}

func (s *taskService) GetDetail(ctx context.Context, id int64, actor models.Actor) (*models.TaskDetail, error) {
	task, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	detail := &models.TaskDetail{
		Task:      task,
		IsOverdue: task.IsOverdue(s.now()),
	}

	if task.ParentTaskID != nil {
		parent, err := s.repo.FindByID(ctx, *task.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent != nil && parent.SAccountID == actor.SAccountID {
			detail.Parent = parent
		}
	}

	people, err := s.users.GetByUsernames(ctx, []string{task.LogBy, task.AssignUser})
	if err != nil {
		return nil, err
	}
	detail.People = models.PeopleInfo{LogBy: task.LogBy, AssignUser: task.AssignUser}
	if u := people[task.LogBy]; u != nil {
		detail.People.LogByFullName = u.DisplayName
		detail.People.LogByAvatarID = u.AvatarID
	}
	if u := people[task.AssignUser]; u != nil {
		detail.People.AssignUserFullName = u.DisplayName
		detail.People.AssignUserAvatarID = u.AvatarID
	}

	if detail.Followers, err = s.relations.ListFollowers(ctx, models.AssignmentTask, id); err != nil {
		return nil, err
	}
	if detail.Tags, err = s.relations.ListTags(ctx, models.AssignmentTask, id); err != nil {
		return nil, err
	}
	if detail.LoggedHours, err = s.relations.TotalLoggedHours(ctx, models.AssignmentTask, id); err != nil {
		return nil, err
	}
	if detail.Activities, err = s.activities.ListByItem(ctx, models.AssignmentTask, id, 0); err != nil {
		return nil, err
	}
	if detail.OpenSubTasks, err = s.repo.CountOpenSubTasks(ctx, id, actor.SAccountID); err != nil {
		return nil, err
	}
	return detail, nil
}

// load returns the task or ErrTaskNotFound when it is absent or belongs to
// another account.
func (s *taskService) load(ctx context.Context, id int64, actor models.Actor) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil || task.SAccountID != actor.SAccountID {
		return nil, fmt.Errorf("%w: %d", models.ErrTaskNotFound, id)
	}
	return task, nil
}

// checkProject verifies the project, and the milestone when set, belong to the actor's account.
func (s *taskService) checkProject(ctx context.Context, projectID int64, milestoneID *int64, actor models.Actor) error {
	if s.projects == nil {
		return nil
	}
	ok, err := s.projects.ExistsInAccount(ctx, projectID, actor.SAccountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrProjectNotFound, projectID)
	}
	if milestoneID == nil {
		return nil
	}
	ok, err = s.projects.MilestoneExistsInProject(ctx, *milestoneID, projectID, actor.SAccountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrMilestoneNotFound, *milestoneID)
	}
	return nil
}

// checkParent validates a new parent: same account, and not the task itself or one of its sub tasks.
func (s *taskService) checkParent(ctx context.Context, task *models.Task, parentID *int64, actor models.Actor) error {
	if parentID == nil || sameID(parentID, task.ParentTaskID) {
		return nil
	}
	if *parentID == task.ID {
		return fmt.Errorf("%w: task cannot be its own parent", models.ErrIllegalTransition)
	}
	if _, err := s.load(ctx, *parentID, actor); err != nil {
		return fmt.Errorf("parent task: %w", err)
	}
	cycle, err := s.repo.IsSubTask(ctx, task.ID, *parentID, actor.SAccountID)
	if err != nil {
		return err
	}
	if cycle {
		return fmt.Errorf("%w: task %d is a sub task of %d", models.ErrIllegalTransition, *parentID, task.ID)
	}
	return nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *taskService) record(ctx context.Context, task *models.Task, actor models.Actor, action, detail string) {
	if s.activities == nil {
		return
	}
	a := &models.Activity{
		SAccountID: task.SAccountID,
		ProjectID:  task.ProjectID,
		Type:       string(models.AssignmentTask),
		TypeID:     task.ID,
		Action:     action,
		CreatedBy:  actor.Username,
		Detail:     detail,
	}
	if err := s.activities.Record(ctx, a); err != nil {
		log.Printf("[tasks][activity][err] task=%d action=%s: %v", task.ID, action, err)
	}
}

func (s *taskService) notify(ctx context.Context, username, text string) {
	if s.notifier == nil || s.users == nil {
		return
	}
	chatID, enabled, err := s.users.GetTelegramSettings(ctx, username)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[tasks][notify][err] user=%s: %v", username, err)
		}
		return
	}
	if !enabled || chatID == 0 {
		return
	}
	if err := s.notifier.SendMessage(chatID, text); err != nil {
		log.Printf("[tasks][notify][err] user=%s chat=%d: %v", username, chatID, err)
	}
}
