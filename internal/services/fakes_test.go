package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"gopkg.in/gomail.v2"

	"projectdesk/internal/models"
)

type searchCall struct {
	criteria      models.GenericTaskCriteria
	offset, limit int
}

// fakeGenericRepo answers counts from a table and searches from an in-memory list.
type fakeGenericRepo struct {
	mu       sync.Mutex
	counts   map[models.AssignmentType]int
	countErr map[models.AssignmentType]error
	items    []models.GenericTask
	accounts []models.BillingAccount
	projects []int64
	searches []searchCall
	// searchErr fails searches scoped to the given account
	searchErr map[int64]error
}

func (f *fakeGenericRepo) CountByType(_ context.Context, t models.AssignmentType, c models.GenericTaskCriteria) (int, error) {
	if err := f.countErr[t]; err != nil {
		return 0, err
	}
	if !c.Includes(t) {
		return 0, nil
	}
	return f.counts[t], nil
}

func (f *fakeGenericRepo) FindAccountsHasOverdueAssignments(context.Context, models.GenericTaskCriteria) ([]models.BillingAccount, error) {
	return f.accounts, nil
}

func (f *fakeGenericRepo) FindProjectsHasOverdueAssignments(context.Context, models.GenericTaskCriteria) ([]int64, error) {
	return f.projects, nil
}

func (f *fakeGenericRepo) Search(_ context.Context, c models.GenericTaskCriteria, offset, limit int) ([]models.GenericTask, error) {
	f.mu.Lock()
	f.searches = append(f.searches, searchCall{criteria: c, offset: offset, limit: limit})
	f.mu.Unlock()
	if c.SAccountID != nil {
		if err := f.searchErr[*c.SAccountID]; err != nil {
			return nil, err
		}
	}

	out := []models.GenericTask{}
	for _, it := range f.items {
		if !c.Includes(it.Type) {
			continue
		}
		if len(c.TypeIDs) > 0 && !containsID(c.TypeIDs, it.TypeID) {
			continue
		}
		if c.SAccountID != nil && it.SAccountID != *c.SAccountID {
			continue
		}
		if c.Assignee != nil && it.Assignee != *c.Assignee {
			continue
		}
		out = append(out, it)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fakeTaskRepo keeps tasks in a map; subTasks maps a parent to its descendants.
type fakeTaskRepo struct {
	tasks      map[int64]*models.Task
	subTasks   map[int64][]int64
	nextID     int64
	massCalls  int
	statusSets []models.TaskStatus
}

func newFakeTaskRepo(tasks ...*models.Task) *fakeTaskRepo {
	f := &fakeTaskRepo{tasks: map[int64]*models.Task{}, subTasks: map[int64][]int64{}, nextID: 100}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTaskRepo) Store(_ context.Context, t *models.Task) error {
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskRepo) FindByID(_ context.Context, id int64) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskRepo) FindAll(context.Context, models.TaskFilter) ([]models.Task, error) {
	out := []models.Task{}
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, t *models.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return fmt.Errorf("task %d: %w", t.ID, models.ErrTaskNotFound)
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) UpdateStatus(_ context.Context, id int64, to models.TaskStatus, pct float64) error {
	t, ok := f.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, models.ErrTaskNotFound)
	}
	t.Status, t.PercentageComplete = to, pct
	f.statusSets = append(f.statusSets, to)
	return nil
}

func (f *fakeTaskRepo) UpdateAssignee(_ context.Context, id int64, assignee string) error {
	t, ok := f.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, models.ErrTaskNotFound)
	}
	t.AssignUser = assignee
	return nil
}

func (f *fakeTaskRepo) CountOpenSubTasks(_ context.Context, id, accountID int64) (int, error) {
	n := 0
	for _, sub := range f.subTasks[id] {
		if t := f.tasks[sub]; t != nil && t.SAccountID == accountID && t.Status != models.StatusClosed {
			n++
		}
	}
	return n, nil
}

// IsSubTask follows subTasks transitively.
func (f *fakeTaskRepo) IsSubTask(ctx context.Context, id, candidate, accountID int64) (bool, error) {
	for _, sub := range f.subTasks[id] {
		if t := f.tasks[sub]; t == nil || t.SAccountID != accountID {
			continue
		}
		if sub == candidate {
			return true, nil
		}
		if found, _ := f.IsSubTask(ctx, sub, candidate, accountID); found {
			return true, nil
		}
	}
	return false, nil
}

// fakeProjects maps project id to account and milestone id to project.
type fakeProjects struct {
	projects   map[int64]int64
	milestones map[int64]int64
}

func (f *fakeProjects) ExistsInAccount(_ context.Context, projectID, accountID int64) (bool, error) {
	acc, ok := f.projects[projectID]
	return ok && acc == accountID, nil
}

func (f *fakeProjects) MilestoneExistsInProject(_ context.Context, milestoneID, projectID, accountID int64) (bool, error) {
	p, ok := f.milestones[milestoneID]
	return ok && p == projectID && f.projects[projectID] == accountID, nil
}

func (f *fakeTaskRepo) MassUpdateSubTaskStatuses(_ context.Context, parentID int64, to models.TaskStatus, accountID int64) (int64, error) {
	f.massCalls++
	var n int64
	for _, sub := range f.subTasks[parentID] {
		t := f.tasks[sub]
		if t == nil || t.SAccountID != accountID || t.Status == to {
			continue
		}
		t.Status = to
		t.PercentageComplete = percentageFor(to, t.PercentageComplete)
		n++
	}
	return n, nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.users[username], nil
}

func (f *fakeUserRepo) GetByUsernames(_ context.Context, usernames []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, u := range usernames {
		if v := f.users[u]; v != nil {
			out[u] = v
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetTelegramSettings(_ context.Context, username string) (int64, bool, error) {
	u := f.users[username]
	if u == nil {
		return 0, false, sql.ErrNoRows
	}
	return u.TelegramChatID, u.NotifyTelegram, nil
}

func (f *fakeUserRepo) GetByChatID(_ context.Context, chatID int64) (*models.User, error) {
	for _, u := range f.users {
		if u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateTelegramLink(context.Context, int64, int64, bool) error { return nil }

type fakeActivityRepo struct {
	recorded []models.Activity
	err      error
}

func (f *fakeActivityRepo) Record(_ context.Context, a *models.Activity) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, *a)
	return nil
}

func (f *fakeActivityRepo) ListByItem(context.Context, models.AssignmentType, int64, int) ([]models.Activity, error) {
	return f.recorded, nil
}

type fakeRelations struct{}

func (fakeRelations) ListFollowers(context.Context, models.AssignmentType, int64) ([]models.Follower, error) {
	return []models.Follower{{Username: "carol", DisplayName: "Carol C"}}, nil
}

func (fakeRelations) ListTags(context.Context, models.AssignmentType, int64) ([]string, error) {
	return []string{"docs"}, nil
}

func (fakeRelations) TotalLoggedHours(context.Context, models.AssignmentType, int64) (float64, error) {
	return 2.5, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}

type fakeMailer struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, m...)
	return nil
}

type digestCall struct {
	to      string
	account models.BillingAccount
	items   []models.GenericTask
}

type fakeEmail struct {
	calls   []digestCall
	failFor map[string]bool
}

func (f *fakeEmail) SendOverdueDigest(to string, account models.BillingAccount, items []models.GenericTask) error {
	if f.failFor[to] {
		return fmt.Errorf("smtp: mailbox unavailable")
	}
	f.calls = append(f.calls, digestCall{to, account, items})
	return nil
}
