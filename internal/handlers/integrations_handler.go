package handlers

import (
	"crypto/subtle"
	"fmt"
	"html"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"projectdesk/internal/middleware"
	"projectdesk/internal/models"
	"projectdesk/internal/repositories"
	"projectdesk/internal/services"
	"projectdesk/internal/utils"
)

const btnMyAssignments = "📋 Мои назначения"

const linkCodeTTL = 30 * time.Minute

// telegramBot is the part of *services.TelegramService the webhook uses.
type telegramBot interface {
	Enabled() bool
	SendMessage(chatID int64, text string) error
	SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error
}

type IntegrationsHandler struct {
	TG            telegramBot
	LinksRepo     repositories.TelegramLinkRepository
	UsersRepo     repositories.UserRepository
	Assignments   services.GenericTaskService
	WebhookSecret string
	now           func() time.Time
}

func NewIntegrationsHandler(
	tg telegramBot,
	links repositories.TelegramLinkRepository,
	users repositories.UserRepository,
	assignments services.GenericTaskService,
	webhookSecret string,
) *IntegrationsHandler {
	return &IntegrationsHandler{
		TG:            tg,
		LinksRepo:     links,
		UsersRepo:     users,
		Assignments:   assignments,
		WebhookSecret: webhookSecret,
		now:           time.Now,
	}
}

func normalizeLinkCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”«»<>.,;:()[]{}\\")
	s = strings.ToUpper(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}

// Webhook всегда отвечает 200, иначе Telegram будет повторять апдейт.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.TG == nil || !h.TG.Enabled() {
		log.Printf("[tg][webhook] bot disabled, ignoring update")
		c.Status(http.StatusOK)
		return
	}
	if h.WebhookSecret != "" {
		got := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
			log.Printf("[tg][webhook][deny] bad secret token")
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil || up.Message == nil || up.Message.Chat == nil {
		if err != nil {
			log.Printf("[tg][webhook] bind json error: %v", err)
		} else {
			log.Printf("[tg][webhook] update without message")
		}
		c.Status(http.StatusOK)
		return
	}

	text := strings.TrimSpace(up.Message.Text)
	chatID := up.Message.Chat.ID
	log.Printf("[tg][webhook] incoming: chatID=%d text=%q", chatID, text)

	switch {
	case strings.HasPrefix(text, "/start"):
		_ = h.TG.SendReplyKeyboard(chatID,
			"Привет! Чтобы связать аккаунт, отправьте:\n<code>/link &lt;код&gt;</code>",
			[][]string{{btnMyAssignments}},
		)

	case strings.HasPrefix(text, "/link"):
		h.link(c, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/link")))

	case text == btnMyAssignments || strings.HasPrefix(text, "/my"):
		h.sendMyAssignments(c, chatID)

	default:
		_ = h.TG.SendMessage(chatID, "Не понял команду. Используйте <code>/link &lt;код&gt;</code> или кнопку меню.")
	}

	c.Status(http.StatusOK)
}

func (h *IntegrationsHandler) link(c *gin.Context, chatID int64, raw string) {
	code, ok := normalizeLinkCode(raw)
	if !ok {
		log.Printf("[tg][link] code normalize failed: raw=%q", raw)
		_ = h.TG.SendMessage(chatID, "Неверный формат кода. Отправьте ровно 32 символа HEX:\n<code>/link 0123456789ABCDEF0123456789ABCDEF</code>")
		return
	}
	ln, err := h.LinksRepo.UseByCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[tg][link] UseByCode failed: %v", err)
		_ = h.TG.SendMessage(chatID, "Код недействителен или истёк. Сгенерируйте новый в личном кабинете.")
		return
	}
	if err := h.UsersRepo.UpdateTelegramLink(c.Request.Context(), ln.UserID, chatID, true); err != nil {
		log.Printf("[tg][link][err] userID=%d chatID=%d: %v", ln.UserID, chatID, err)
		_ = h.TG.SendMessage(chatID, "Не удалось привязать аккаунт, попробуйте позже.")
		return
	}
	log.Printf("[tg][link][ok] userID=%d chatID=%d", ln.UserID, chatID)
	_ = h.TG.SendReplyKeyboard(chatID,
		"Готово! Аккаунт привязан, вы будете получать уведомления о задачах.",
		[][]string{{btnMyAssignments}},
	)
}

// POST /integrations/telegram/request-link
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	userID, ok := getInt64FromCtx(c, middleware.CtxUserID)
	if !ok || userID == 0 {
		log.Printf("[tg][request-link] userID not in context -> 401")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code, err := utils.NewLinkCode(16)
	if err != nil {
		log.Printf("[tg][request-link][err] rand: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rng failed"})
		return
	}
	ln, err := h.LinksRepo.Create(c.Request.Context(), userID, code, linkCodeTTL)
	if err != nil {
		log.Printf("[tg][request-link][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       ln.Code,
		"expires_at": ln.ExpiresAt,
		"hint":       "Откройте чат с ботом и отправьте: /link " + ln.Code,
	})
}

// ===== Кнопка "Мои назначения" =====

func daysLeftStr(now time.Time, due *time.Time) (bucket string, sortKey int) {
	if due == nil {
		return "Без срока", 1_000_000
	}
	days := int(due.Sub(now).Hours() / 24)
	if due.Before(now) && days == 0 {
		days = -1
	}
	switch {
	case days < 0:
		bucket = fmt.Sprintf("Просрочено (%d дн.)", -days)
	case days == 0:
		bucket = "Сегодня"
	case days == 1:
		bucket = "Через 1 день"
	default:
		bucket = fmt.Sprintf("Через %d дней", days)
	}
	return bucket, days
}

// formatMyAssignments groups open assignments by days left to the due date.
func formatMyAssignments(now time.Time, items []models.GenericTask) string {
	type grp struct {
		key   int
		items []models.GenericTask
	}
	buckets := map[string]*grp{}
	for _, it := range items {
		name, key := daysLeftStr(now, it.DueDate)
		g := buckets[name]
		if g == nil {
			g = &grp{key: key}
			buckets[name] = g
		}
		g.items = append(g.items, it)
	}

	type kv struct {
		name string
		grp  *grp
	}
	arr := make([]kv, 0, len(buckets))
	for name, g := range buckets {
		arr = append(arr, kv{name, g})
	}
	sort.Slice(arr, func(i, j int) bool { return arr[i].grp.key < arr[j].grp.key })

	var b strings.Builder
	b.WriteString("📋 <b>Мои назначения по срокам</b>\n")
	for _, it := range arr {
		b.WriteString("\n— <b>" + html.EscapeString(it.name) + "</b>\n")
		for _, t := range it.grp.items {
			due := "—"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			b.WriteString("• [" + string(t.Type) + "] " + html.EscapeString(t.ProjectShortName) + "-" +
				strconv.FormatInt(t.TypeID, 10) + " " + html.EscapeString(t.Name) + " [до: " + due + "]\n")
		}
	}
	return b.String()
}

func (h *IntegrationsHandler) sendMyAssignments(c *gin.Context, chatID int64) {
	u, err := h.UsersRepo.GetByChatID(c.Request.Context(), chatID)
	if err != nil || u == nil {
		_ = h.TG.SendMessage(chatID, "Не удалось определить пользователя по Telegram. Привяжите аккаунт командой /link.")
		return
	}
	accountID, username := u.SAccountID, u.Username
	items, err := h.Assignments.FindAbsoluteListByCriteria(c.Request.Context(), models.GenericTaskCriteria{
		SAccountID: &accountID,
		Assignee:   &username,
		IsOpen:     true,
		Now:        h.now(),
	}, 0, 30)
	if err != nil {
		log.Printf("[tg][my][err] user=%s: %v", username, err)
		_ = h.TG.SendMessage(chatID, "Не удалось загрузить назначения.")
		return
	}
	if len(items) == 0 {
		_ = h.TG.SendMessage(chatID, "У вас нет открытых назначений. 👍")
		return
	}
	_ = h.TG.SendReplyKeyboard(chatID, formatMyAssignments(h.now(), items), [][]string{{btnMyAssignments}})
}
