package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/middleware"
	"projectdesk/internal/models"
)

// более устойчиво к типам (int / int64 / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// getActor builds the session context from the JWT claims.
func getActor(c *gin.Context) models.Actor {
	accountID, _ := getInt64FromCtx(c, middleware.CtxSAccountID)
	return models.Actor{
		SAccountID: accountID,
		Username:   c.GetString(middleware.CtxUsername),
	}
}

func getRole(c *gin.Context) int {
	n, _ := getInt64FromCtx(c, middleware.CtxRoleID)
	return int(n)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps domain sentinels to HTTP codes and logs with the given tag.
func respondError(c *gin.Context, tag string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAssignmentType):
		log.Printf("%s[400] %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrTaskNotFound):
		log.Printf("%s[404] %v", tag, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, models.ErrProjectNotFound):
		log.Printf("%s[404] %v", tag, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, models.ErrMilestoneNotFound):
		log.Printf("%s[404] %v", tag, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
	case errors.Is(err, models.ErrIllegalTransition):
		log.Printf("%s[409] %v", tag, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("%s[err] %v", tag, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt64s(c *gin.Context, key string) ([]int64, error) {
	var out []int64
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		if t, err = time.Parse("2006-01-02", v); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// maxPageSize caps page and limit query params of list endpoints.
const maxPageSize = 100

// queryLimit reads a positive page size, clamped to maxPageSize.
func queryLimit(c *gin.Context, key string, def int) int {
	n := queryInt(c, key, def)
	if n <= 0 {
		return def
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
