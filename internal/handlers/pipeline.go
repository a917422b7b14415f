package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dream-villa-bot/internal/store"
	"dream-villa-bot/internal/villa"
)

const generationFailedText = "Sorry, there was an error generating your villa. Please try again later."

// generate runs the two-stage pipeline for the user's stored preferences.
// The step is reset to home whatever the outcome.
func (h *Handler) generate(ctx context.Context, ev Event) error {
	logger := h.logger.With("generation_id", uuid.NewString(), "user_id", ev.UserID)

	defer func() {
		if err := h.store.SetStep(context.WithoutCancel(ctx), ev.UserID, villa.StepHome); err != nil {
			logger.Error("reset step failed", "err", err)
		}
	}()

	prefs, err := h.store.GetPreferences(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}

	prompt := villa.BuildPrompt(prefs)
	logger.Info("generation started", "prompt", prompt)
	h.progress(logger, ev, fmt.Sprintf("Generating your dream villa...\n\n%s", prompt))

	enhanced := h.gen.Enhance(ctx, prompt)
	if enhanced.Fallback() {
		logger.Warn("using fallback prompt", "err", enhanced.Err)
	}
	h.progress(logger, ev, fmt.Sprintf("Generating %s...\n\n%s", enhanced.Title, enhanced.Prompt))

	img := h.gen.Synthesize(ctx, enhanced.Prompt)
	if !img.OK() {
		logger.Warn("no image produced", "err", img.Err)
		h.metrics.Generation("no_image")
		return h.tg.EditMessage(ev.ChatID, ev.MessageID, generationFailedText, "", nil)
	}

	sent, err := h.tg.SendPhoto(ev.ChatID, img.Data, enhanced.Title, nil)
	if err != nil {
		h.metrics.Generation("no_image")
		return fmt.Errorf("send photo: %w", err)
	}
	h.metrics.Generation("image")
	logger.Info("generation delivered", "title", enhanced.Title, "bytes", len(img.Data))

	h.archive(ctx, logger, ev, sent.MessageID, sent.FileID, enhanced.Title)

	return h.tg.EditMessage(ev.ChatID, ev.MessageID, fmt.Sprintf("Here's %s!\n\n%s", enhanced.Title, enhanced.Prompt), "", nil)
}

// progress failures are logged only; the pipeline keeps going.
func (h *Handler) progress(logger *slog.Logger, ev Event, text string) {
	if err := h.tg.EditMessage(ev.ChatID, ev.MessageID, text, "", nil); err != nil {
		logger.Warn("progress update failed", "err", err)
	}
}

func (h *Handler) archive(ctx context.Context, logger *slog.Logger, ev Event, messageID int, fileID, title string) {
	id, err := h.store.SaveImage(ctx, store.Image{
		MessageID:   messageID,
		PhotoFileID: fileID,
		Legend:      title,
	})
	if err != nil {
		logger.Error("archive image failed", "err", err)
		return
	}

	if err := h.tg.EditKeyboard(ev.ChatID, messageID, likeKeyboard(id, 0)); err != nil {
		logger.Warn("attach like button failed", "err", err, "image_id", id)
	}
}
