package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/models"
	"projectdesk/internal/services"
)

type GenericTaskHandler struct {
	service services.GenericTaskService
}

func NewGenericTaskHandler(service services.GenericTaskService) *GenericTaskHandler {
	return &GenericTaskHandler{service: service}
}

// criteriaFromQuery reads the search filters. The account always comes from the token.
func criteriaFromQuery(c *gin.Context, actor models.Actor) (models.GenericTaskCriteria, error) {
	accountID := actor.SAccountID
	criteria := models.GenericTaskCriteria{
		SAccountID: &accountID,
		IsOpen:     queryBool(c, "open"),
		IsOverdue:  queryBool(c, "overdue"),
		Sort:       c.Query("sort"),
	}

	for _, raw := range c.QueryArray("type") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			t, err := models.ParseAssignmentType(part)
			if err != nil {
				return criteria, err
			}
			criteria.Types = append(criteria.Types, t)
		}
	}

	var err error
	if criteria.TypeIDs, err = queryInt64s(c, "type_id"); err != nil {
		return criteria, fmt.Errorf("invalid type_id: %v", err)
	}
	if criteria.ProjectIDs, err = queryInt64s(c, "project_id"); err != nil {
		return criteria, fmt.Errorf("invalid project_id: %v", err)
	}
	if v := strings.TrimSpace(c.Query("assignee")); v != "" {
		criteria.Assignee = &v
	}
	if v := strings.TrimSpace(c.Query("name")); v != "" {
		criteria.Name = &v
	}
	if v := c.Query("milestone_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return criteria, fmt.Errorf("invalid milestone_id: %v", err)
		}
		criteria.MilestoneID = &id
	}
	if criteria.DueDateFrom, err = queryTime(c, "due_from"); err != nil {
		return criteria, fmt.Errorf("invalid due_from: %v", err)
	}
	if criteria.DueDateTo, err = queryTime(c, "due_to"); err != nil {
		return criteria, fmt.Errorf("invalid due_to: %v", err)
	}
	return criteria, nil
}

func badCriteria(c *gin.Context, tag string, err error) {
	log.Printf("%s[400] %v", tag, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// @Summary      Поиск по всем назначениям
// @Description  Задачи, баги, риски и вехи одним списком
// @Tags         Assignments
// @Produce      json
// @Param        type      query  []string  false  "Task|Bug|Risk|Milestone"
// @Param        open      query  bool      false  "только открытые"
// @Param        overdue   query  bool      false  "только просроченные"
// @Param        page      query  int       false  "страница (с 1)"
// @Param        size      query  int       false  "размер страницы"
// @Success      200  {object}  services.GenericTaskPage
// @Failure      400  {object}  map[string]string
// @Router       /assignments [get]
func (h *GenericTaskHandler) Search(c *gin.Context) {
	actor := getActor(c)
	log.Printf("[assignments][search] call by user=%s account=%d q=%v", actor.Username, actor.SAccountID, c.Request.URL.RawQuery)

	criteria, err := criteriaFromQuery(c, actor)
	if err != nil {
		badCriteria(c, "[assignments][search]", err)
		return
	}
	page, err := h.service.FindPageableListByCriteria(c.Request.Context(), criteria,
		queryInt(c, "page", 1), queryLimit(c, "size", 20))
	if err != nil {
		respondError(c, "[assignments][search]", err)
		return
	}
	log.Printf("[assignments][search][ok] items=%d total=%d", len(page.Items), page.Total)
	c.JSON(http.StatusOK, page)
}

// @Summary      Количество назначений
// @Tags         Assignments
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /assignments/count [get]
func (h *GenericTaskHandler) Count(c *gin.Context) {
	actor := getActor(c)
	criteria, err := criteriaFromQuery(c, actor)
	if err != nil {
		badCriteria(c, "[assignments][count]", err)
		return
	}
	total, err := h.service.GetTotalCount(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, "[assignments][count]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// @Summary      Аккаунты с просроченными назначениями
// @Tags         Assignments
// @Produce      json
// @Success      200  {array}  models.BillingAccount
// @Router       /assignments/overdue/accounts [get]
func (h *GenericTaskHandler) OverdueAccounts(c *gin.Context) {
	actor := getActor(c)
	criteria, err := criteriaFromQuery(c, actor)
	if err != nil {
		badCriteria(c, "[assignments][overdueAccounts]", err)
		return
	}
	accounts, err := h.service.GetAccountsHasOverdueAssignments(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, "[assignments][overdueAccounts]", err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// @Summary      Проекты с просроченными назначениями
// @Tags         Assignments
// @Produce      json
// @Success      200  {object}  map[string][]int64
// @Router       /assignments/overdue/projects [get]
func (h *GenericTaskHandler) OverdueProjects(c *gin.Context) {
	actor := getActor(c)
	criteria, err := criteriaFromQuery(c, actor)
	if err != nil {
		badCriteria(c, "[assignments][overdueProjects]", err)
		return
	}
	ids, err := h.service.GetProjectsHasOverdueAssignments(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, "[assignments][overdueProjects]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_ids": ids})
}

// @Summary      Одно назначение по типу и id
// @Tags         Assignments
// @Produce      json
// @Param        type  path  string  true  "Task|Bug|Risk|Milestone"
// @Param        id    path  int     true  "id внутри типа"
// @Success      200  {object}  models.GenericTask
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /assignments/{type}/{id} [get]
func (h *GenericTaskHandler) FindOne(c *gin.Context) {
	actor := getActor(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.service.FindAssignment(c.Request.Context(), c.Param("type"), id)
	if err != nil {
		respondError(c, "[assignments][find]", err)
		return
	}
	// чужой аккаунт = не найдено
	if item == nil || item.SAccountID != actor.SAccountID {
		log.Printf("[assignments][find][404] type=%s id=%d", c.Param("type"), id)
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}
