package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/authz"
	"projectdesk/internal/models"
	"projectdesk/internal/pdf"
	"projectdesk/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	sheets  pdf.Generator
}

func NewTaskHandler(service services.TaskService, sheets pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, sheets: sheets}
}

type taskRequest struct {
	ProjectID          int64               `json:"project_id"`
	ParentTaskID       *int64              `json:"parent_task_id"`
	MilestoneID        *int64              `json:"milestone_id"`
	Name               string              `json:"name" binding:"required"`
	Description        string              `json:"description"`
	Status             models.TaskStatus   `json:"status"`
	Priority           models.TaskPriority `json:"priority"`
	PercentageComplete float64             `json:"percentage_complete"`
	StartDate          *time.Time          `json:"start_date"` // RFC3339
	EndDate            *time.Time          `json:"end_date"`
	DueDate            *time.Time          `json:"due_date"`
	AssignUser         string              `json:"assign_user"`
}

func (r *taskRequest) toModel() *models.Task {
	return &models.Task{
		ProjectID:          r.ProjectID,
		ParentTaskID:       r.ParentTaskID,
		MilestoneID:        r.MilestoneID,
		Name:               r.Name,
		Description:        r.Description,
		Status:             r.Status,
		Priority:           r.Priority,
		PercentageComplete: r.PercentageComplete,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		DueDate:            r.DueDate,
		AssignUser:         r.AssignUser,
	}
}

func isAllowedTaskStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusOpen, models.StatusInProgress, models.StatusPending, models.StatusClosed:
		return true
	}
	return false
}

// canAssign: рядовой участник может назначать только на себя
func canAssign(roleID int, actor models.Actor, assignee string) bool {
	if roleID != authz.RoleMember {
		return true
	}
	return assignee == "" || assignee == actor.Username
}

// @Summary      Создать задачу
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      taskRequest  true  "Задача"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor, roleID := getActor(c), getRole(c)
	log.Printf("[task][create] call by user=%s account=%d role=%d", actor.Username, actor.SAccountID, roleID)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ProjectID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}
	if req.Status != "" && !isAllowedTaskStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if !canAssign(roleID, actor, req.AssignUser) {
		log.Printf("[task][create][deny] member=%s tried assign to %s", actor.Username, req.AssignUser)
		c.JSON(http.StatusForbidden, gin.H{"error": "members can assign only to self"})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req.toModel(), actor)
	if err != nil {
		respondError(c, "[task][create]", err)
		return
	}
	log.Printf("[task][create][ok] id=%d assignee=%q name=%q", created.ID, created.AssignUser, created.Name)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][getByID]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Карточка задачи
// @Description  Задача с родителем, людьми, подписчиками, тегами, временем и активностью
// @Tags         Tasks
// @Produce      json
// @Param        id   path      int  true  "ID задачи"
// @Success      200  {object}  models.TaskDetail
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/detail [get]
func (h *TaskHandler) GetDetail(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetDetail(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][detail]", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	actor := getActor(c)
	log.Printf("[task][list] call by user=%s account=%d q=%v", actor.Username, actor.SAccountID, c.Request.URL.RawQuery)

	filter := models.TaskFilter{
		SAccountID: actor.SAccountID,
		Limit:      queryLimit(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	if v, ok := c.GetQuery("project_id"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ProjectID = &id
		} else {
			log.Printf("[task][list][warn] bad project_id=%q: %v", v, err)
		}
	}
	if v, ok := c.GetQuery("parent_task_id"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ParentTaskID = &id
		} else {
			log.Printf("[task][list][warn] bad parent_task_id=%q: %v", v, err)
		}
	}
	if v, ok := c.GetQuery("assign_user"); ok {
		u := v
		filter.AssignUser = &u
	}
	if v, ok := c.GetQuery("log_by"); ok {
		u := v
		filter.LogBy = &u
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	log.Printf("[task][list][ok] count=%d", len(tasks))
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	actor, roleID := getActor(c), getRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != "" && !isAllowedTaskStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if !canAssign(roleID, actor, req.AssignUser) {
		log.Printf("[task][update][deny] member=%s set assignee=%s", actor.Username, req.AssignUser)
		c.JSON(http.StatusForbidden, gin.H{"error": "members can assign only to self"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req.toModel(), actor)
	if err != nil {
		respondError(c, "[task][update]", err)
		return
	}
	log.Printf("[task][update][ok] id=%d", id)
	c.JSON(http.StatusOK, updated)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		respondError(c, "[task][delete]", err)
		return
	}
	log.Printf("[task][delete][ok] id=%d by=%s", id, actor.Username)
	c.Status(http.StatusNoContent)
}

// POST /tasks/:id/status {"to":"Closed"}
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		To models.TaskStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][status][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isAllowedTaskStatus(body.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), id, body.To, actor)
	if err != nil {
		respondError(c, "[task][status]", err)
		return
	}
	log.Printf("[task][status][ok] id=%d new=%q", id, body.To)
	c.JSON(http.StatusOK, updated)
}

// @Summary      Закрыть / переоткрыть задачу
// @Description  Если задача закрыта, в ответе число открытых подзадач
// @Tags         Tasks
// @Produce      json
// @Param        id   path      int  true  "ID задачи"
// @Success      200  {object}  models.ToggleResult
// @Router       /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.service.ToggleStatus(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][toggle]", err)
		return
	}
	log.Printf("[task][toggle][ok] id=%d status=%s open_sub_tasks=%d", id, res.Task.Status, res.OpenSubTasks)
	c.JSON(http.StatusOK, res)
}

// GET /tasks/:id/subtasks/open-count
func (h *TaskHandler) OpenSubTaskCount(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.CountOpenSubTasks(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][openSubTasks]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"open_sub_tasks": n})
}

// POST /tasks/:id/subtasks/close
func (h *TaskHandler) CloseSubTasks(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.CloseSubTasks(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][closeSubTasks]", err)
		return
	}
	log.Printf("[task][closeSubTasks][ok] id=%d closed=%d", id, n)
	c.JSON(http.StatusOK, gin.H{"closed": n})
}

// POST /tasks/:id/assign {"assignee":"bob"}
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, roleID := getActor(c), getRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Assignee string `json:"assignee"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][assign][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !canAssign(roleID, actor, body.Assignee) {
		log.Printf("[task][assign][deny] member=%s -> %s", actor.Username, body.Assignee)
		c.JSON(http.StatusForbidden, gin.H{"error": "members can assign only to self"})
		return
	}
	updated, err := h.service.UpdateAssignee(c.Request.Context(), id, body.Assignee, actor)
	if err != nil {
		respondError(c, "[task][assign]", err)
		return
	}
	log.Printf("[task][assign][ok] id=%d assignee=%q", id, body.Assignee)
	c.JSON(http.StatusOK, updated)
}

// @Summary      Печатная версия задачи
// @Tags         Tasks
// @Produce      application/pdf
// @Param        id   path  int  true  "ID задачи"
// @Success      200
// @Router       /tasks/{id}/print [get]
func (h *TaskHandler) Print(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetDetail(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "[task][print]", err)
		return
	}
	path, err := h.sheets.GenerateTaskSheet(detail)
	if err != nil {
		respondError(c, "[task][print]", err)
		return
	}
	log.Printf("[task][print][ok] id=%d file=%s", id, filepath.Base(path))
	c.FileAttachment(path, fmt.Sprintf("task-%d.pdf", id))
}
