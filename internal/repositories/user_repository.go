package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"projectdesk/internal/models"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByUsernames returns the users that exist, keyed by username.
	GetByUsernames(ctx context.Context, usernames []string) (map[string]*models.User, error)
	GetTelegramSettings(ctx context.Context, username string) (chatID int64, notify bool, err error)
	// GetByChatID returns (nil, nil) when no user is linked to the chat.
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	UpdateTelegramLink(ctx context.Context, userID, chatID int64, notify bool) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, s_account_id, username, email, display_name, avatar_id, role_id,
	password_hash, telegram_chat_id, notify_telegram`

func scanUser(row scannable) (*models.User, error) {
	var (
		u      models.User
		avatar sql.NullString
		chat   sql.NullInt64
	)
	if err := row.Scan(
		&u.ID, &u.SAccountID, &u.Username, &u.Email, &u.DisplayName, &avatar, &u.RoleID,
		&u.PasswordHash, &chat, &u.NotifyTelegram,
	); err != nil {
		return nil, err
	}
	u.AvatarID = avatar.String
	u.TelegramChatID = chat.Int64
	return &u, nil
}

// GetByUsername returns (nil, nil) for an unknown username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ANY($1)`, pq.Array(usernames))
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.Username] = u
	}
	return out, rows.Err()
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, username string) (int64, bool, error) {
	var chat sql.NullInt64
	var notify bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT telegram_chat_id, notify_telegram FROM users WHERE username=$1`, username,
	).Scan(&chat, &notify)
	if err != nil {
		return 0, false, err
	}
	return chat.Int64, notify, nil
}

func (r *userRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by chat %d: %w", chatID, err)
	}
	return u, nil
}

// UpdateTelegramLink moves the chat to userID, unlinking any previous owner.
func (r *userRepository) UpdateTelegramLink(ctx context.Context, userID, chatID int64, notify bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id=NULL, notify_telegram=false WHERE telegram_chat_id=$1 AND id<>$2`,
		chatID, userID); err != nil {
		return fmt.Errorf("unlink chat %d: %w", chatID, err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id=$1, notify_telegram=$2 WHERE id=$3`, chatID, notify, userID)
	if err != nil {
		return fmt.Errorf("link chat %d to user %d: %w", chatID, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("link chat %d: user %d: %w", chatID, userID, sql.ErrNoRows)
	}
	return tx.Commit()
}
