package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dream-villa-bot/internal/store"
	"dream-villa-bot/internal/villa"
)

const homeText = "🏝️ *Dream Villa Designer*\n\nCustomize your villa parameters and click Generate when ready!"

func (h *Handler) openConfigurator(ctx context.Context, ev Event) error {
	if err := h.store.SetStep(ctx, ev.UserID, villa.StepHome); err != nil {
		return fmt.Errorf("set step: %w", err)
	}
	return h.renderHome(ctx, ev)
}

func (h *Handler) handleButton(ctx context.Context, ev Event) error {
	if ev.CallbackID != "" {
		if err := h.tg.AnswerCallback(ev.CallbackID, ""); err != nil {
			h.logger.Warn("answer callback failed", "err", err, "user_id", ev.UserID)
		}
	}

	parsed := villa.ParseEvent(ev.Payload)
	h.metrics.Event(parsed.Kind.String())

	switch parsed.Kind {
	case villa.EventEditField:
		return h.editField(ctx, ev, parsed.Field)
	case villa.EventSelectValue:
		return h.selectValue(ctx, ev, parsed.Field, parsed.Value)
	case villa.EventHome:
		if err := h.store.SetStep(ctx, ev.UserID, villa.StepHome); err != nil {
			return fmt.Errorf("set step: %w", err)
		}
		return h.renderHome(ctx, ev)
	case villa.EventGenerate:
		return h.generate(ctx, ev)
	case villa.EventLike:
		return h.like(ctx, ev, parsed.ImageID)
	default:
		h.logger.Debug("ignoring unknown button", "data", ev.Payload, "user_id", ev.UserID)
		return nil
	}
}

func (h *Handler) editField(ctx context.Context, ev Event, f villa.Field) error {
	step, ok := villa.EditingStep(f)
	if !ok {
		return nil
	}
	menu, ok := villa.MenuFor(f)
	if !ok {
		return nil
	}

	if err := h.store.SetStep(ctx, ev.UserID, step); err != nil {
		return fmt.Errorf("set step: %w", err)
	}

	kb := menuKeyboard(f, menu)
	return h.show(ev, menu.Question, "", kb)
}

func (h *Handler) selectValue(ctx context.Context, ev Event, f villa.Field, value string) error {
	if err := h.store.SetPreference(ctx, ev.UserID, f, value); err != nil {
		return fmt.Errorf("set %s: %w", f, err)
	}
	if err := h.store.SetStep(ctx, ev.UserID, villa.StepHome); err != nil {
		return fmt.Errorf("set step: %w", err)
	}
	return h.renderHome(ctx, ev)
}

func (h *Handler) renderHome(ctx context.Context, ev Event) error {
	prefs, err := h.store.GetPreferences(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}
	return h.show(ev, homeText, tgbotapi.ModeMarkdown, homeKeyboard(prefs))
}

// show edits the message a button belongs to, or sends a new one for
// commands and for messages that can no longer be edited.
func (h *Handler) show(ev Event, text, parseMode string, kb tgbotapi.InlineKeyboardMarkup) error {
	if ev.Kind == KindButtonPress && ev.MessageID != 0 {
		err := h.tg.EditMessage(ev.ChatID, ev.MessageID, text, parseMode, &kb)
		if err == nil {
			return nil
		}
		h.logger.Warn("edit message failed, sending new", "err", err, "chat_id", ev.ChatID)
	}

	_, err := h.tg.SendMessage(ev.ChatID, text, parseMode, &kb)
	return err
}

func (h *Handler) like(ctx context.Context, ev Event, imageID int64) error {
	likes, err := h.store.LikeImage(ctx, imageID)
	if errors.Is(err, store.ErrImageNotFound) {
		h.logger.Debug("like for unknown image", "image_id", imageID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("like image %d: %w", imageID, err)
	}

	return h.tg.EditKeyboard(ev.ChatID, ev.MessageID, likeKeyboard(imageID, likes))
}
