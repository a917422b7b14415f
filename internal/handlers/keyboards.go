package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dream-villa-bot/internal/villa"
)

func homeKeyboard(p villa.Preferences) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range villa.Fields() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(villa.Label(f, p.Get(f)), villa.EditData(f)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Generate Villa", villa.GenerateData()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func menuKeyboard(f villa.Field, menu villa.Menu) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu.Options)+1)
	for _, opt := range menu.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Name, villa.SelectData(f, opt.Key)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back to Home", villa.HomeData()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func likeKeyboard(imageID int64, likes int) tgbotapi.InlineKeyboardMarkup {
	label := "❤️ Like"
	if likes > 0 {
		label = fmt.Sprintf("❤️ Like (%d)", likes)
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label, villa.LikeData(imageID)),
	))
}
