package telegram

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxTextBytes    = 4096
	maxCaptionBytes = 1024
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Client struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		bot:    bot,
		logger: logger,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type Update = tgbotapi.Update

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	} else {
		u.Timeout = 30
	}
	u.AllowedUpdates = []string{"message", "callback_query"}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

// SendText sends plain text, split into as many messages as needed.
func (c *Client) SendText(chatID int64, text string) error {
	for _, p := range splitByBytes(text, maxTextBytes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, p)); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage sends a single message and returns its id. A nil keyboard
// sends no markup.
func (c *Client) SendMessage(chatID int64, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, truncateByBytes(text, maxTextBytes))
	msg.ParseMode = parseMode
	if kb != nil {
		msg.ReplyMarkup = *kb
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessage replaces the text of a message the bot sent earlier. Edits that
// leave the message unchanged are not errors.
func (c *Client) EditMessage(chatID int64, messageID int, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, truncateByBytes(text, maxTextBytes))
	edit.ParseMode = parseMode
	edit.ReplyMarkup = kb

	_, err := c.bot.Request(edit)
	if isNotModified(err) {
		return nil
	}
	return err
}

func (c *Client) EditKeyboard(chatID int64, messageID int, kb tgbotapi.InlineKeyboardMarkup) error {
	_, err := c.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, kb))
	if isNotModified(err) {
		return nil
	}
	return err
}

func (c *Client) AnswerCallback(callbackID, text string) error {
	_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

type SentPhoto struct {
	MessageID int
	FileID    string
}

// SendPhoto uploads image bytes with a caption and returns the Telegram file
// id of the largest stored size.
func (c *Client) SendPhoto(chatID int64, data []byte, caption string, kb *tgbotapi.InlineKeyboardMarkup) (SentPhoto, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  photoName(data),
		Bytes: data,
	})
	if caption != "" {
		photo.Caption = truncateByBytes(caption, maxCaptionBytes)
	}
	if kb != nil {
		photo.ReplyMarkup = *kb
	}

	sent, err := c.bot.Send(photo)
	if err != nil {
		return SentPhoto{}, err
	}

	out := SentPhoto{MessageID: sent.MessageID}
	if n := len(sent.Photo); n > 0 {
		out.FileID = sent.Photo[n-1].FileID
	}
	return out, nil
}

func photoName(data []byte) string {
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "villa.png"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return "villa" + exts[0]
	}
	return "villa.png"
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func splitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	var buf strings.Builder
	buf.Grow(maxBytes)

	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len() > 0 && buf.Len()+runeBytes > maxBytes {
			out = append(out, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}

	return out
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
