package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dream-villa-bot/internal/generation"
	"dream-villa-bot/internal/store"
	"dream-villa-bot/internal/telegram"
	"dream-villa-bot/internal/villa"
)

const (
	userID    int64 = 7
	chatID    int64 = 100
	messageID       = 42

	basePrompt = "A photorealistic aerial 360-degree view around a premium modern villa located at the seaside, luxury vacation home, professional photography, high detail, 4K"
)

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	ParseMode string
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}

type editedKeyboard struct {
	ChatID    int64
	MessageID int
	Keyboard  tgbotapi.InlineKeyboardMarkup
}

type sentPhoto struct {
	ChatID  int64
	Data    []byte
	Caption string
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentMessage
	edits     []editedMessage
	keyboards []editedKeyboard
	photos    []sentPhoto
	answered  []string
	editErr   error
}

func (f *fakeMessenger) SendText(chatID int64, text string) error {
	_, err := f.SendMessage(chatID, text, "", nil)
	return err
}

func (f *fakeMessenger) SendMessage(chatID int64, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, ParseMode: parseMode, Keyboard: kb})
	return 1000 + len(f.sent), nil
}

func (f *fakeMessenger) EditMessage(chatID int64, messageID int, text, parseMode string, kb *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, ParseMode: parseMode, Keyboard: kb})
	return nil
}

func (f *fakeMessenger) EditKeyboard(chatID int64, messageID int, kb tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards = append(f.keyboards, editedKeyboard{ChatID: chatID, MessageID: messageID, Keyboard: kb})
	return nil
}

func (f *fakeMessenger) SendPhoto(chatID int64, data []byte, caption string, _ *tgbotapi.InlineKeyboardMarkup) (telegram.SentPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{ChatID: chatID, Data: data, Caption: caption})
	return telegram.SentPhoto{MessageID: 500, FileID: "file-500"}, nil
}

func (f *fakeMessenger) AnswerCallback(callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) editTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.edits))
	for _, e := range f.edits {
		out = append(out, e.Text)
	}
	return out
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Enhance(ctx context.Context, prompt string) generation.Enhancement {
	args := m.Called(ctx, prompt)
	return args.Get(0).(generation.Enhancement)
}

func (m *mockGenerator) Synthesize(ctx context.Context, prompt string) generation.Image {
	args := m.Called(ctx, prompt)
	return args.Get(0).(generation.Image)
}

func (m *mockGenerator) ProbeOnline(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

type fixture struct {
	h     *Handler
	tg    *fakeMessenger
	store *store.MemoryStore
	gen   Generator
}

func newFixture(gen Generator) fixture {
	tg := &fakeMessenger{}
	st := store.NewMemoryStore()
	h := New(Options{
		Telegram:  tg,
		Store:     st,
		Generator: gen,
		Messages: Messages{
			Start:   "Welcome to the Dream Villa Bot!",
			Help:    "Send an image with a caption to process it.",
			Info:    "Dream Villa Bot",
			Welcome: "Welcome to the group!",
		},
	})
	return fixture{h: h, tg: tg, store: st, gen: gen}
}

func button(data string) Event {
	return Event{
		Kind:       KindButtonPress,
		UserID:     userID,
		ChatID:     chatID,
		MessageID:  messageID,
		CallbackID: "cb-" + data,
		Payload:    data,
	}
}

func command(name string) Event {
	return Event{Kind: KindCommand, UserID: userID, ChatID: chatID, MessageID: 1, Payload: name}
}

func currentStep(t *testing.T, s store.Store) villa.Step {
	t.Helper()
	step, err := s.GetStep(context.Background(), userID)
	require.NoError(t, err)
	return step
}

func currentPrefs(t *testing.T, s store.Store) villa.Preferences {
	t.Helper()
	p, err := s.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func TestGenerate_DeliversImage(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Enhance", mock.Anything, basePrompt).
		Return(generation.Enhancement{Prompt: "glass villa on stilts", Title: "Stilts and Sunsets"}).Once()
	gen.On("Synthesize", mock.Anything, "glass villa on stilts").
		Return(generation.Image{Data: []byte("png-bytes")}).Once()

	f := newFixture(gen)
	require.NoError(t, f.h.HandleEvent(context.Background(), button("action:generate")))

	gen.AssertExpectations(t)
	assert.Equal(t, []string{"cb-action:generate"}, f.tg.answered)
	assert.Equal(t, []string{
		"Generating your dream villa...\n\n" + basePrompt,
		"Generating Stilts and Sunsets...\n\nglass villa on stilts",
		"Here's Stilts and Sunsets!\n\nglass villa on stilts",
	}, f.tg.editTexts())

	require.Len(t, f.tg.photos, 1)
	assert.Equal(t, chatID, f.tg.photos[0].ChatID)
	assert.Equal(t, []byte("png-bytes"), f.tg.photos[0].Data)
	assert.Equal(t, "Stilts and Sunsets", f.tg.photos[0].Caption)

	img, err := f.store.GetImage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 500, img.MessageID)
	assert.Equal(t, "file-500", img.PhotoFileID)
	assert.Equal(t, "Stilts and Sunsets", img.Legend)

	require.Len(t, f.tg.keyboards, 1)
	assert.Equal(t, 500, f.tg.keyboards[0].MessageID)
	assert.Equal(t, "like:1", *f.tg.keyboards[0].Keyboard.InlineKeyboard[0][0].CallbackData)

	assert.Equal(t, villa.StepHome, currentStep(t, f.store))
}

func TestGenerate_NoImageShowsFailureNotice(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Enhance", mock.Anything, basePrompt).
		Return(generation.Enhancement{Prompt: basePrompt, Title: generation.DefaultTitle, Err: generation.ErrEnhancerDisabled})
	gen.On("Synthesize", mock.Anything, basePrompt).
		Return(generation.Image{Err: errors.New("image API 500 Internal Server Error")})

	f := newFixture(gen)
	require.NoError(t, f.store.SetStep(context.Background(), userID, villa.StepEditingStyle))
	require.NoError(t, f.h.HandleEvent(context.Background(), button("action:generate")))

	texts := f.tg.editTexts()
	require.NotEmpty(t, texts)
	assert.Equal(t, generationFailedText, texts[len(texts)-1])
	assert.Empty(t, f.tg.photos)
	assert.Empty(t, f.tg.keyboards)
	assert.Equal(t, villa.StepHome, currentStep(t, f.store))
}

func TestGenerate_DefaultPreferencesWithoutEnhancer(t *testing.T) {
	prompts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		prompts <- r.PostForm.Get("prompt-text")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
	}))
	defer srv.Close()

	gen := generation.New(generation.Options{APIURL: srv.URL, GenPath: "/gen"})
	f := newFixture(gen)
	require.NoError(t, f.h.HandleEvent(context.Background(), button("action:generate")))

	assert.Equal(t, basePrompt, <-prompts)
	assert.Equal(t, []string{
		"Generating your dream villa...\n\n" + basePrompt,
		"Generating your dream villa...\n\n" + basePrompt,
		"Here's your dream villa!\n\n" + basePrompt,
	}, f.tg.editTexts())
	require.Len(t, f.tg.photos, 1)
	assert.Equal(t, "your dream villa", f.tg.photos[0].Caption)
}

func TestGenerate_ProgressEditFailureDoesNotAbort(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Enhance", mock.Anything, basePrompt).Return(generation.Enhancement{Prompt: "p", Title: "t"})
	gen.On("Synthesize", mock.Anything, "p").Return(generation.Image{Data: []byte("img")})

	f := newFixture(gen)
	f.tg.editErr = errors.New("message to edit not found")

	err := f.h.HandleEvent(context.Background(), button("action:generate"))
	assert.Error(t, err)
	assert.Len(t, f.tg.photos, 1)
	gen.AssertExpectations(t)
}

func TestUnknownEventIsNoOp(t *testing.T) {
	f := newFixture(&mockGenerator{})
	ctx := context.Background()

	require.NoError(t, f.store.SetPreference(ctx, userID, villa.FieldStyle, "rustic"))
	require.NoError(t, f.store.SetStep(ctx, userID, villa.StepEditingStyle))
	before := currentPrefs(t, f.store)

	for _, data := range []string{"frobnicate:x", "", "action:explode", "edit:roof", "like:abc", "budget"} {
		require.NoError(t, f.h.HandleEvent(ctx, button(data)))
	}

	assert.Equal(t, villa.StepEditingStyle, currentStep(t, f.store))
	assert.Equal(t, before, currentPrefs(t, f.store))
	assert.Empty(t, f.tg.edits)
	assert.Empty(t, f.tg.sent)
	assert.Len(t, f.tg.answered, 6)
}

func TestEditThenSelectValue(t *testing.T) {
	f := newFixture(&mockGenerator{})
	ctx := context.Background()

	require.NoError(t, f.h.HandleEvent(ctx, button("edit:budget")))
	assert.Equal(t, villa.StepEditingBudget, currentStep(t, f.store))

	require.Len(t, f.tg.edits, 1)
	menu := f.tg.edits[0]
	assert.Equal(t, "What's your budget range for the villa?", menu.Text)
	require.NotNil(t, menu.Keyboard)
	rows := menu.Keyboard.InlineKeyboard
	require.Len(t, rows, 7)
	assert.Equal(t, "budget:1m-plus", *rows[5][0].CallbackData)
	assert.Equal(t, "« Back to Home", rows[6][0].Text)
	assert.Equal(t, "action:home", *rows[6][0].CallbackData)

	require.NoError(t, f.h.HandleEvent(ctx, button("budget:1m-plus")))
	assert.Equal(t, villa.StepHome, currentStep(t, f.store))
	assert.Equal(t, villa.Preferences{
		Budget:      "1m-plus",
		Location:    villa.DefaultLocation,
		Style:       villa.DefaultStyle,
		CameraAngle: villa.DefaultCameraAngle,
	}, currentPrefs(t, f.store))

	require.Len(t, f.tg.edits, 2)
	home := f.tg.edits[1]
	assert.Equal(t, homeText, home.Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, home.ParseMode)
	require.NotNil(t, home.Keyboard)
	homeRows := home.Keyboard.InlineKeyboard
	require.Len(t, homeRows, 5)
	assert.Equal(t, "💰 Budget: $1m-plus", homeRows[0][0].Text)
	assert.Equal(t, "📷 Camera Angle: orbit", homeRows[3][0].Text)
	assert.Equal(t, "action:generate", *homeRows[4][0].CallbackData)
}

func TestBackToHome(t *testing.T) {
	f := newFixture(&mockGenerator{})
	ctx := context.Background()

	require.NoError(t, f.h.HandleEvent(ctx, button("edit:camera_angle")))
	assert.Equal(t, villa.StepEditingCameraAngle, currentStep(t, f.store))

	require.NoError(t, f.h.HandleEvent(ctx, button("action:home")))
	assert.Equal(t, villa.StepHome, currentStep(t, f.store))
	assert.Equal(t, villa.DefaultPreferences(), currentPrefs(t, f.store))
}

func TestEditFailureFallsBackToNewMessage(t *testing.T) {
	f := newFixture(&mockGenerator{})
	f.tg.editErr = errors.New("message can't be edited")

	require.NoError(t, f.h.HandleEvent(context.Background(), button("action:home")))
	require.Len(t, f.tg.sent, 1)
	assert.Equal(t, homeText, f.tg.sent[0].Text)
}

func TestLike(t *testing.T) {
	f := newFixture(&mockGenerator{})
	ctx := context.Background()

	id, err := f.store.SaveImage(ctx, store.Image{MessageID: 500, Legend: "villa"})
	require.NoError(t, err)

	require.NoError(t, f.h.HandleEvent(ctx, button(villa.LikeData(id))))
	require.NoError(t, f.h.HandleEvent(ctx, button(villa.LikeData(id))))

	require.Len(t, f.tg.keyboards, 2)
	assert.Equal(t, "❤️ Like (2)", f.tg.keyboards[1].Keyboard.InlineKeyboard[0][0].Text)

	img, err := f.store.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Likes)

	require.NoError(t, f.h.HandleEvent(ctx, button("like:99")))
	assert.Len(t, f.tg.keyboards, 2)
}

func TestCommands(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("ProbeOnline", mock.Anything).Return(true).Once()
	gen.On("ProbeOnline", mock.Anything).Return(false).Once()

	f := newFixture(gen)
	ctx := context.Background()

	for _, name := range []string{"start", "help", "info", "info", "unknown"} {
		require.NoError(t, f.h.HandleEvent(ctx, command(name)))
	}

	require.Len(t, f.tg.sent, 4)
	assert.Equal(t, "Welcome to the Dream Villa Bot!", f.tg.sent[0].Text)
	assert.Equal(t, "Send an image with a caption to process it.", f.tg.sent[1].Text)
	assert.Equal(t, "Dream Villa Bot\n\n✅ API service available", f.tg.sent[2].Text)
	assert.Equal(t, "Dream Villa Bot\n\n❌ API service offline", f.tg.sent[3].Text)
	gen.AssertExpectations(t)
}

func TestVillaCommandOpensHome(t *testing.T) {
	f := newFixture(&mockGenerator{})

	assert.Equal(t, villa.StepNone, currentStep(t, f.store))
	require.NoError(t, f.h.HandleEvent(context.Background(), command("villa")))

	assert.Equal(t, villa.StepHome, currentStep(t, f.store))
	assert.Empty(t, f.tg.edits)
	require.Len(t, f.tg.sent, 1)
	assert.Equal(t, homeText, f.tg.sent[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, f.tg.sent[0].ParseMode)
}

type failingStore struct {
	store.Store
}

func (failingStore) GetPreferences(context.Context, int64) (villa.Preferences, error) {
	return villa.Preferences{}, errors.New("database is locked")
}

func TestStoreFailureFailsOnlyTheEvent(t *testing.T) {
	gen := &mockGenerator{}
	tg := &fakeMessenger{}
	h := New(Options{Telegram: tg, Store: failingStore{store.NewMemoryStore()}, Generator: gen})

	err := h.HandleEvent(context.Background(), button("action:generate"))
	assert.ErrorContains(t, err, "database is locked")
	assert.Empty(t, tg.photos)
	gen.AssertNotCalled(t, "Enhance", mock.Anything, mock.Anything)
}

func TestHandleUpdate(t *testing.T) {
	gen := &mockGenerator{}
	f := newFixture(gen)
	ctx := context.Background()

	cmd := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      "/villa@DreamVillaBot",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 20}},
	}}
	require.NoError(t, f.h.HandleUpdate(ctx, cmd))
	assert.Equal(t, villa.StepHome, currentStep(t, f.store))

	cb := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "q1",
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 1001,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
		Data: "edit:location",
	}}
	require.NoError(t, f.h.HandleUpdate(ctx, cb))
	assert.Equal(t, villa.StepEditingLocation, currentStep(t, f.store))
	assert.Equal(t, []string{"q1"}, f.tg.answered)
	require.Len(t, f.tg.edits, 1)
	assert.Equal(t, 1001, f.tg.edits[0].MessageID)

	key, ok := UpdateKey(cb)
	assert.True(t, ok)
	assert.Equal(t, userID, key)

	_, ok = UpdateKey(tgbotapi.Update{})
	assert.False(t, ok)
}

func TestWelcomeNewMembers(t *testing.T) {
	f := newFixture(&mockGenerator{})

	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		NewChatMembers: []tgbotapi.User{
			{ID: 9, FirstName: "Ana", LastName: "<Lima>"},
			{ID: 10, FirstName: "HelperBot", IsBot: true},
		},
	}}
	require.NoError(t, f.h.HandleUpdate(context.Background(), update))

	require.Len(t, f.tg.sent, 1)
	assert.Equal(t, tgbotapi.ModeHTML, f.tg.sent[0].ParseMode)
	assert.Equal(t, `Welcome <a href="tg://user?id=9">Ana &lt;Lima&gt;</a>!`+"\n\nWelcome to the group!", f.tg.sent[0].Text)
}
