package handlers

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dream-villa-bot/internal/generation"
	"dream-villa-bot/internal/metrics"
	"dream-villa-bot/internal/store"
	"dream-villa-bot/internal/telegram"
)

// Messenger is the chat surface the handlers render to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendMessage(chatID int64, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	EditMessage(chatID int64, messageID int, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) error
	EditKeyboard(chatID int64, messageID int, kb tgbotapi.InlineKeyboardMarkup) error
	SendPhoto(chatID int64, data []byte, caption string, kb *tgbotapi.InlineKeyboardMarkup) (telegram.SentPhoto, error)
	AnswerCallback(callbackID, text string) error
}

type Generator interface {
	Enhance(ctx context.Context, prompt string) generation.Enhancement
	Synthesize(ctx context.Context, prompt string) generation.Image
	ProbeOnline(ctx context.Context) bool
}

// Messages are the canned replies to the informational commands.
type Messages struct {
	Start   string
	Help    string
	Info    string
	Welcome string
}

type Options struct {
	Telegram  Messenger
	Store     store.Store
	Generator Generator
	Messages  Messages
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Handler struct {
	tg       Messenger
	store    store.Store
	gen      Generator
	messages Messages
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		tg:       opts.Telegram,
		store:    opts.Store,
		gen:      opts.Generator,
		messages: opts.Messages,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

type EventKind string

const (
	KindCommand     EventKind = "command"
	KindButtonPress EventKind = "button_press"
)

// Event is one inbound interaction. Payload is the command name for commands
// and the callback data for button presses.
type Event struct {
	Kind       EventKind
	UserID     int64
	ChatID     int64
	MessageID  int
	CallbackID string
	Payload    string
}

// UpdateKey returns the id that orders an update relative to others from the
// same user.
func UpdateKey(update telegram.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if q := update.CallbackQuery; q != nil {
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return h.tg.AnswerCallback(q.ID, "")
		}
		return h.HandleEvent(ctx, Event{
			Kind:       KindButtonPress,
			UserID:     q.From.ID,
			ChatID:     q.Message.Chat.ID,
			MessageID:  q.Message.MessageID,
			CallbackID: q.ID,
			Payload:    q.Data,
		})
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}

	if len(msg.NewChatMembers) > 0 {
		return h.welcome(msg.Chat.ID, msg.NewChatMembers)
	}

	if msg.IsCommand() && msg.From != nil {
		return h.HandleEvent(ctx, Event{
			Kind:      KindCommand,
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Payload:   msg.Command(),
		})
	}

	return nil
}

func (h *Handler) HandleEvent(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindCommand:
		h.metrics.Event("command")
		return h.handleCommand(ctx, ev)
	case KindButtonPress:
		return h.handleButton(ctx, ev)
	default:
		return nil
	}
}

func (h *Handler) handleCommand(ctx context.Context, ev Event) error {
	switch strings.ToLower(ev.Payload) {
	case "start":
		return h.tg.SendText(ev.ChatID, h.messages.Start)
	case "help":
		return h.tg.SendText(ev.ChatID, h.messages.Help)
	case "info":
		text := h.messages.Info
		if h.gen.ProbeOnline(ctx) {
			text += "\n\n✅ API service available"
		} else {
			text += "\n\n❌ API service offline"
		}
		return h.tg.SendText(ev.ChatID, text)
	case "villa":
		return h.openConfigurator(ctx, ev)
	default:
		return nil
	}
}

func (h *Handler) welcome(chatID int64, members []tgbotapi.User) error {
	for _, m := range members {
		if m.IsBot {
			continue
		}
		text := fmt.Sprintf("Welcome %s!\n\n%s", mentionHTML(m), html.EscapeString(h.messages.Welcome))
		if _, err := h.tg.SendMessage(chatID, text, tgbotapi.ModeHTML, nil); err != nil {
			return fmt.Errorf("welcome %d: %w", m.ID, err)
		}
	}
	return nil
}

func mentionHTML(u tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(name))
}
