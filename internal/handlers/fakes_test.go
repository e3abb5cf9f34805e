package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/middleware"
	"projectdesk/internal/models"
	"projectdesk/internal/repositories"
	"projectdesk/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSession stands in for AuthMiddleware.
func withSession(userID, accountID int64, username string, roleID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxSAccountID, accountID)
		c.Set(middleware.CtxUsername, username)
		c.Set(middleware.CtxRoleID, roleID)
		c.Next()
	}
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeAssignments struct {
	last     models.GenericTaskCriteria
	page     int
	size     int
	total    int
	items    []models.GenericTask
	accounts []models.BillingAccount
	projects []int64
	found    *models.GenericTask
	findErr  error
	err      error
}

func (f *fakeAssignments) GetTotalCount(_ context.Context, c models.GenericTaskCriteria) (int, error) {
	f.last = c
	return f.total, f.err
}

func (f *fakeAssignments) GetAccountsHasOverdueAssignments(_ context.Context, c models.GenericTaskCriteria) ([]models.BillingAccount, error) {
	f.last = c
	return f.accounts, f.err
}

func (f *fakeAssignments) GetProjectsHasOverdueAssignments(_ context.Context, c models.GenericTaskCriteria) ([]int64, error) {
	f.last = c
	return f.projects, f.err
}

func (f *fakeAssignments) FindAbsoluteListByCriteria(_ context.Context, c models.GenericTaskCriteria, _, _ int) ([]models.GenericTask, error) {
	f.last = c
	return f.items, f.err
}

func (f *fakeAssignments) FindPageableListByCriteria(_ context.Context, c models.GenericTaskCriteria, page, size int) (*services.GenericTaskPage, error) {
	f.last, f.page, f.size = c, page, size
	if f.err != nil {
		return nil, f.err
	}
	return &services.GenericTaskPage{Items: f.items, Total: f.total, Page: page, Size: size}, nil
}

func (f *fakeAssignments) FindAssignment(_ context.Context, assignmentType string, _ int64) (*models.GenericTask, error) {
	if _, err := models.ParseAssignmentType(assignmentType); err != nil {
		return nil, err
	}
	return f.found, f.findErr
}

// fakeTasks returns err from every call when set.
type fakeTasks struct {
	task    *models.Task
	detail  *models.TaskDetail
	toggle  *models.ToggleResult
	closed  int64
	open    int
	err     error
	created *models.Task
	actor   models.Actor
}

func (f *fakeTasks) Create(_ context.Context, t *models.Task, actor models.Actor) (*models.Task, error) {
	f.created, f.actor = t, actor
	if f.err != nil {
		return nil, f.err
	}
	t.ID = 1
	return t, nil
}

func (f *fakeTasks) GetByID(_ context.Context, _ int64, actor models.Actor) (*models.Task, error) {
	f.actor = actor
	return f.task, f.err
}

func (f *fakeTasks) GetAll(context.Context, models.TaskFilter) ([]models.Task, error) {
	if f.task == nil {
		return []models.Task{}, f.err
	}
	return []models.Task{*f.task}, f.err
}

func (f *fakeTasks) Update(_ context.Context, _ int64, t *models.Task, _ models.Actor) (*models.Task, error) {
	return t, f.err
}

func (f *fakeTasks) Delete(context.Context, int64, models.Actor) error { return f.err }

func (f *fakeTasks) UpdateStatus(_ context.Context, _ int64, to models.TaskStatus, _ models.Actor) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task.Status = to
	return f.task, nil
}

func (f *fakeTasks) ToggleStatus(context.Context, int64, models.Actor) (*models.ToggleResult, error) {
	return f.toggle, f.err
}

func (f *fakeTasks) UpdateAssignee(_ context.Context, _ int64, assignee string, _ models.Actor) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task.AssignUser = assignee
	return f.task, nil
}

func (f *fakeTasks) CountOpenSubTasks(context.Context, int64, models.Actor) (int, error) {
	return f.open, f.err
}

func (f *fakeTasks) CloseSubTasks(context.Context, int64, models.Actor) (int64, error) {
	return f.closed, f.err
}

func (f *fakeTasks) GetDetail(context.Context, int64, models.Actor) (*models.TaskDetail, error) {
	return f.detail, f.err
}

type fakeSheets struct {
	path string
	err  error
}

func (f *fakeSheets) GenerateTaskSheet(*models.TaskDetail) (string, error) {
	return f.path, f.err
}

type botMessage struct {
	chatID   int64
	text     string
	keyboard [][]string
}

type fakeBot struct {
	disabled bool
	sent     []botMessage
}

func (f *fakeBot) Enabled() bool { return !f.disabled }

func (f *fakeBot) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, botMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeBot) SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error {
	f.sent = append(f.sent, botMessage{chatID, text, keyboard})
	return nil
}

type fakeLinks struct {
	codes   map[string]int64
	created []string
}

func (f *fakeLinks) Create(_ context.Context, userID int64, code string, ttl time.Duration) (*repositories.TelegramLink, error) {
	f.created = append(f.created, code)
	return &repositories.TelegramLink{ID: 1, UserID: userID, Code: code, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeLinks) UseByCode(_ context.Context, code string) (*repositories.TelegramLink, error) {
	userID, ok := f.codes[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(f.codes, code)
	return &repositories.TelegramLink{UserID: userID, Code: code, Used: true}, nil
}

type linkCall struct {
	userID, chatID int64
	notify         bool
}

type fakeUsers struct {
	users map[string]*models.User
	links []linkCall
	err   error
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[username], nil
}

func (f *fakeUsers) GetByUsernames(context.Context, []string) (map[string]*models.User, error) {
	return f.users, nil
}

func (f *fakeUsers) GetTelegramSettings(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeUsers) GetByChatID(_ context.Context, chatID int64) (*models.User, error) {
	for _, u := range f.users {
		if u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdateTelegramLink(_ context.Context, userID, chatID int64, notify bool) error {
	f.links = append(f.links, linkCall{userID, chatID, notify})
	return nil
}
