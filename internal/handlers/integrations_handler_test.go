package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/models"
)

const validCode = "0123456789ABCDEF0123456789ABCDEF"

type integrationsFixture struct {
	h      *IntegrationsHandler
	bot    *fakeBot
	links  *fakeLinks
	users  *fakeUsers
	assign *fakeAssignments
	r      *gin.Engine
}

func newIntegrationsFixture(secret string) *integrationsFixture {
	f := &integrationsFixture{
		bot:   &fakeBot{},
		links: &fakeLinks{codes: map[string]int64{validCode: 11}},
		users: &fakeUsers{users: map[string]*models.User{
			"bob": {ID: 11, SAccountID: 7, Username: "bob", TelegramChatID: 555},
		}},
		assign: &fakeAssignments{},
	}
	f.h = NewIntegrationsHandler(f.bot, f.links, f.users, f.assign, secret)
	f.h.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

	f.r = gin.New()
	f.r.POST("/integrations/telegram/webhook", f.h.Webhook)
	authed := f.r.Group("/", withSession(11, 7, "bob", 10))
	authed.POST("/integrations/telegram/request-link", f.h.RequestTelegramLink)
	return f
}

func update(chatID int64, text string) string {
	b, _ := json.Marshal(map[string]any{
		"update_id": 1,
		"message": map[string]any{
			"message_id": 1,
			"date":       0,
			"text":       text,
			"chat":       map[string]any{"id": chatID, "type": "private"},
		},
	})
	return string(b)
}

func TestNormalizeLinkCode(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{validCode, true},
		{"«0123456789abcdef0123456789abcdef»", true},
		{" 0123-4567-89AB-CDEF-0123-4567-89AB-CDEF ", true},
		{"0123", false},
		{validCode + "00", false},
	}
	for _, tc := range cases {
		code, got := normalizeLinkCode(tc.in)
		if got != tc.ok {
			t.Errorf("%q: expected ok=%v, got %v", tc.in, tc.ok, got)
		}
		if tc.ok && code != validCode {
			t.Errorf("%q: expected %s, got %s", tc.in, validCode, code)
		}
	}
}

func TestWebhook_Link(t *testing.T) {
	f := newIntegrationsFixture("")

	w := do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(999, "/link "+strings.ToLower(validCode)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(f.users.links) != 1 || f.users.links[0] != (linkCall{userID: 11, chatID: 999, notify: true}) {
		t.Fatalf("unexpected links %+v", f.users.links)
	}
	if len(f.bot.sent) != 1 || f.bot.sent[0].chatID != 999 || len(f.bot.sent[0].keyboard) != 1 {
		t.Fatalf("expected confirmation with keyboard, got %+v", f.bot.sent)
	}

	// code is single use
	do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(999, "/link "+validCode))
	if len(f.users.links) != 1 {
		t.Fatalf("used code must not link again")
	}
}

func TestWebhook_BadCode(t *testing.T) {
	f := newIntegrationsFixture("")

	do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(999, "/link nope"))
	if len(f.users.links) != 0 || len(f.bot.sent) != 1 {
		t.Fatalf("expected single error reply, got links=%v sent=%v", f.users.links, f.bot.sent)
	}
}

func TestWebhook_SecretToken(t *testing.T) {
	f := newIntegrationsFixture("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/integrations/telegram/webhook", strings.NewReader(update(1, "/start")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/integrations/telegram/webhook", strings.NewReader(update(1, "/start")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w = httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(f.bot.sent) != 1 {
		t.Fatalf("expected 200 with greeting, got %d %+v", w.Code, f.bot.sent)
	}
}

func TestWebhook_DisabledBot(t *testing.T) {
	f := newIntegrationsFixture("")
	f.bot.disabled = true

	w := do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(999, "/start"))
	if w.Code != http.StatusOK || len(f.bot.sent) != 0 {
		t.Fatalf("disabled bot must ack silently, got %d %+v", w.Code, f.bot.sent)
	}
}

func TestWebhook_MyAssignments(t *testing.T) {
	f := newIntegrationsFixture("")
	due := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	f.assign.items = []models.GenericTask{
		{Type: models.AssignmentBug, TypeID: 7, ProjectShortName: "WEB", Name: "crash", DueDate: &due},
	}

	do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(555, btnMyAssignments))

	c := f.assign.last
	if c.SAccountID == nil || *c.SAccountID != 7 || c.Assignee == nil || *c.Assignee != "bob" || !c.IsOpen {
		t.Fatalf("unexpected criteria %+v", c)
	}
	if len(f.bot.sent) != 1 || !strings.Contains(f.bot.sent[0].text, "WEB-7 crash") {
		t.Fatalf("unexpected reply %+v", f.bot.sent)
	}
}

func TestWebhook_MyAssignmentsUnlinked(t *testing.T) {
	f := newIntegrationsFixture("")

	do(f.r, http.MethodPost, "/integrations/telegram/webhook", update(1, "/my"))
	if len(f.bot.sent) != 1 || !strings.Contains(f.bot.sent[0].text, "/link") {
		t.Fatalf("expected link hint, got %+v", f.bot.sent)
	}
}

func TestRequestTelegramLink(t *testing.T) {
	f := newIntegrationsFixture("")

	w := do(f.r, http.MethodPost, "/integrations/telegram/request-link", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	code, _ := body["code"].(string)
	if len(code) != 32 || len(f.links.created) != 1 || f.links.created[0] != code {
		t.Fatalf("unexpected code %q (created %v)", code, f.links.created)
	}
	if _, ok := normalizeLinkCode(code); !ok {
		t.Fatalf("issued code must pass normalization: %q", code)
	}
}

func TestFormatMyAssignments(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-72 * time.Hour)
	soon := now.Add(36 * time.Hour)
	out := formatMyAssignments(now, []models.GenericTask{
		{Type: models.AssignmentTask, TypeID: 3, ProjectShortName: "WEB", Name: "later"},
		{Type: models.AssignmentBug, TypeID: 1, ProjectShortName: "WEB", Name: "late", DueDate: &overdue},
		{Type: models.AssignmentRisk, TypeID: 2, ProjectShortName: "WEB", Name: "soon", DueDate: &soon},
	})

	iLate := strings.Index(out, "Просрочено (3 дн.)")
	iSoon := strings.Index(out, "Через 1 день")
	iNone := strings.Index(out, "Без срока")
	if iLate < 0 || iSoon < 0 || iNone < 0 {
		t.Fatalf("missing buckets:\n%s", out)
	}
	if !(iLate < iSoon && iSoon < iNone) {
		t.Fatalf("buckets out of order:\n%s", out)
	}
	if !strings.Contains(out, "• [Bug] WEB-1 late [до: 2024-05-07]") {
		t.Fatalf("unexpected line format:\n%s", out)
	}
}
