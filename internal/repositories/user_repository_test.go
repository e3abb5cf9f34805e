package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var userRowColumns = []string{
	"id", "s_account_id", "username", "email", "display_name", "avatar_id", "role_id",
	"password_hash", "telegram_chat_id", "notify_telegram",
}

func TestGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(1, 7, "alice", "a@x.test", "Alice A", nil, 20, "$2a$hash", nil, false))

	u, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u == nil || u.SAccountID != 7 || u.DisplayName != "Alice A" || u.AvatarID != "" || u.TelegramChatID != 0 {
		t.Errorf("user = %+v", u)
	}
}

func TestGetByUsernameMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	u, err := repo.GetByUsername(context.Background(), "ghost")
	if err != nil || u != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", u, err)
	}
}

func TestGetByUsernames(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = ANY\(\$1\)`).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(2, 7, "bob", "", "Bob B", "av-2", 10, "", int64(55), true))

	users, err := repo.GetByUsernames(context.Background(), []string{"bob", "carol"})
	if err != nil {
		t.Fatalf("GetByUsernames: %v", err)
	}
	if len(users) != 1 || users["bob"] == nil || users["bob"].AvatarID != "av-2" || users["carol"] != nil {
		t.Errorf("users = %v", users)
	}
}

func TestGetByUsernamesEmptySkipsQuery(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	users, err := repo.GetByUsernames(context.Background(), nil)
	if err != nil || len(users) != 0 {
		t.Fatalf("got (%v, %v)", users, err)
	}
}

func TestUpdateTelegramLink(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET telegram_chat_id=NULL`).WithArgs(int64(555), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users SET telegram_chat_id=\$1, notify_telegram=\$2 WHERE id=\$3`).
		WithArgs(int64(555), true, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateTelegramLink(context.Background(), 2, 555, true); err != nil {
		t.Fatalf("UpdateTelegramLink: %v", err)
	}
}

func TestUpdateTelegramLinkUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET telegram_chat_id=NULL`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users SET telegram_chat_id=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateTelegramLink(context.Background(), 99, 555, true)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}
