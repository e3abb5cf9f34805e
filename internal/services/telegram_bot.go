package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a short text message to a chat.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

type TelegramService struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramService returns a service that silently skips sends when the
// token is empty or the bot cannot be reached at startup.
func NewTelegramService(botToken string) *TelegramService {
	return newTelegramService(botToken, tgbotapi.APIEndpoint)
}

func newTelegramService(botToken, endpoint string) *TelegramService {
	if botToken == "" {
		return &TelegramService{}
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		log.Printf("[tg][init][err] %v", err)
		return &TelegramService{}
	}
	log.Printf("[tg][init] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot}
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		log.Printf("[tg][skip] bot or chatID empty (bot? %v chatID=%d)", t != nil && t.bot != nil, chatID)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	log.Printf("[tg][send] chatID=%d text=%q", chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

// SendReplyKeyboard sends text with a reply keyboard shown under the input line.
func (t *TelegramService) SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		log.Printf("[tg][skip] bot or chatID empty (bot? %v chatID=%d)", t != nil && t.bot != nil, chatID)
		return nil
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = kb

	log.Printf("[tg][send+kb] chatID=%d text=%q", chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage(with kb) failed: %w", err)
	}
	return nil
}

// Enabled reports whether a bot is connected.
func (t *TelegramService) Enabled() bool {
	return t != nil && t.bot != nil
}
