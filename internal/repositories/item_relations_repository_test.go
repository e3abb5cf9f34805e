package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"projectdesk/internal/models"
)

func TestItemRelations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRelationsRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT f\.username, .+ FROM followers f`).WithArgs("Task", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"username", "display_name", "created_at"}).
			AddRow("carol", "Carol C", now))
	mock.ExpectQuery(`SELECT name FROM tags WHERE type = \$1 AND type_id = \$2`).WithArgs("Task", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("docs").AddRow("release"))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(hours\), 0\) FROM time_logs`).WithArgs("Task", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2.5))

	followers, err := repo.ListFollowers(ctx, models.AssignmentTask, 42)
	if err != nil || len(followers) != 1 || followers[0].DisplayName != "Carol C" {
		t.Fatalf("followers = %v, err = %v", followers, err)
	}
	tags, err := repo.ListTags(ctx, models.AssignmentTask, 42)
	if err != nil || len(tags) != 2 {
		t.Fatalf("tags = %v, err = %v", tags, err)
	}
	hours, err := repo.TotalLoggedHours(ctx, models.AssignmentTask, 42)
	if err != nil || hours != 2.5 {
		t.Fatalf("hours = %v, err = %v", hours, err)
	}
}

func TestActivityRecordAndList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	a := &models.Activity{SAccountID: 1, ProjectID: 7, Type: "Task", TypeID: 42, Action: "status", CreatedBy: "alice", Detail: "Open -> Closed"}
	mock.ExpectQuery(`INSERT INTO activities .+ RETURNING id, created_at`).
		WithArgs(int64(1), int64(7), "Task", int64(42), "status", "alice", "Open -> Closed").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
	if err := repo.Record(ctx, a); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if a.ID != 11 || !a.CreatedAt.Equal(now) {
		t.Errorf("activity = %+v", a)
	}

	mock.ExpectQuery(`FROM activities WHERE type = \$1 AND type_id = \$2 ORDER BY created_at DESC, id DESC LIMIT \$3`).
		WithArgs("Task", int64(42), 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "s_account_id", "project_id", "type", "type_id", "action", "created_by", "detail", "created_at"}).
			AddRow(11, 1, 7, "Task", 42, "status", "alice", "Open -> Closed", now))
	list, err := repo.ListByItem(ctx, models.AssignmentTask, 42, 0)
	if err != nil || len(list) != 1 || list[0].Action != "status" {
		t.Fatalf("list = %v, err = %v", list, err)
	}
}

func TestTelegramLinkUseByCode(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &telegramLinkRepository{db: db, now: func() time.Time { return now }}
	cols := []string{"id", "user_id", "code", "expires_at", "used", "created_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM telegram_links WHERE code=\$1 FOR UPDATE`).WithArgs("ABC").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 2, "ABC", now.Add(time.Minute), false, now))
	mock.ExpectExec(`UPDATE telegram_links SET used=true WHERE id=\$1`).WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	l, err := repo.UseByCode(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("UseByCode: %v", err)
	}
	if l.UserID != 2 || !l.Used {
		t.Errorf("link = %+v", l)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM telegram_links WHERE code=\$1 FOR UPDATE`).WithArgs("OLD").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 2, "OLD", now.Add(-time.Minute), false, now))
	mock.ExpectRollback()

	if _, err := repo.UseByCode(context.Background(), "OLD"); err == nil {
		t.Fatal("expired code accepted")
	}
}
