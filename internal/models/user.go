package models

type User struct {
	ID             int64  `json:"id"`
	SAccountID     int64  `json:"s_account_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	AvatarID       string `json:"avatar_id,omitempty"`
	RoleID         int    `json:"role_id"`
	PasswordHash   string `json:"-"` // не отдаём наружу
	TelegramChatID int64  `json:"-"`
	NotifyTelegram bool   `json:"-"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
