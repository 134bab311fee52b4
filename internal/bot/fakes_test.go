package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-bot/internal/download"
	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/model"
	"github.com/ytget/yt-bot/internal/platform"
	"github.com/ytget/yt-bot/internal/store"
)

const operatorID = 1

type sentKeyboard struct {
	chatID int64
	text   string
	rows   [][]Button
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     map[int64][]string
	keyboards []sentKeyboard
	answers   map[string]string
	failFor   map[int64]bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{texts: map[int64][]string{}, answers: map[string]string{}, failFor: map[int64]bool{}}
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return io.ErrClosedPipe
	}
	m.texts[chatID] = append(m.texts[chatID], text)
	return nil
}

func (m *fakeMessenger) SendKeyboard(_ context.Context, chatID int64, text string, rows [][]Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyboards = append(m.keyboards, sentKeyboard{chatID: chatID, text: text, rows: rows})
	return nil
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[callbackID] = text
	return nil
}

func (m *fakeMessenger) textsFor(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts[chatID]...)
}

func (m *fakeMessenger) lastText(chatID int64) string {
	texts := m.textsFor(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (m *fakeMessenger) sentKeyboards() []sentKeyboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentKeyboard(nil), m.keyboards...)
}

func (m *fakeMessenger) answer(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.answers[id]
	return text, ok
}

type fakeJobs struct {
	mu        sync.Mutex
	submitted []model.Request
	admission download.Admission
	err       error
	active    []model.JobSnapshot
	canceled  []string
	cancelErr error
}

func (j *fakeJobs) Submit(_ context.Context, req model.Request) (download.Admission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return download.Admission{}, j.err
	}
	j.submitted = append(j.submitted, req)
	return j.admission, nil
}

func (j *fakeJobs) Cancel(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelErr != nil {
		return j.cancelErr
	}
	j.canceled = append(j.canceled, id)
	return nil
}

func (j *fakeJobs) Active() []model.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]model.JobSnapshot(nil), j.active...)
}

func (j *fakeJobs) QueueLen() int {
	return 0
}

type fakeUsers struct {
	mu        sync.Mutex
	seen      map[int64]string
	banned    map[int64]bool
	active    []int64
	completed int64
	upsertErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{seen: map[int64]string{}, banned: map[int64]bool{}}
}

func (u *fakeUsers) UpsertUserSeen(_ context.Context, id int64, firstName, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.upsertErr != nil {
		return u.upsertErr
	}
	u.seen[id] = firstName
	return nil
}

func (u *fakeUsers) SetBanned(_ context.Context, id int64, banned bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.seen[id]; !ok {
		return store.ErrUserNotFound
	}
	u.banned[id] = banned
	return nil
}

func (u *fakeUsers) CountUsers(context.Context) (store.UserCounts, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	counts := store.UserCounts{Total: int64(len(u.seen))}
	for _, b := range u.banned {
		if b {
			counts.Banned++
		}
	}
	return counts, nil
}

func (u *fakeUsers) ListActiveUserIDs(context.Context) ([]int64, error) {
	return u.active, nil
}

func (u *fakeUsers) GetStat(_ context.Context, key string) (int64, error) {
	if key != store.StatSuccessfulDownloads {
		return 0, nil
	}
	return u.completed, nil
}

type fakeSettings struct {
	mu          sync.Mutex
	maintenance bool
	search      bool
	err         error
}

func (s *fakeSettings) MaintenanceMode(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintenance, s.err
}

func (s *fakeSettings) SetMaintenanceMode(_ context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.maintenance = on
	return nil
}

func (s *fakeSettings) SearchEnabled(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search, s.err
}

func (s *fakeSettings) SetSearchEnabled(_ context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.search = on
	return nil
}

type fakeBans map[int64]bool

func (b fakeBans) IsBanned(_ context.Context, id int64) (bool, error) {
	return b[id], nil
}

type fakePlaylists struct {
	entries []platform.PlaylistEntry
	err     error
}

func (p fakePlaylists) ParsePlaylist(context.Context, string) ([]platform.PlaylistEntry, error) {
	return p.entries, p.err
}

type testBot struct {
	handler   *Handler
	messenger *fakeMessenger
	jobs      *fakeJobs
	users     *fakeUsers
	settings  *fakeSettings
	flags     *gate.Flags
	bans      fakeBans
}

func newTestBot(playlists PlaylistResolver) *testBot {
	tb := &testBot{
		messenger: newFakeMessenger(),
		jobs:      &fakeJobs{admission: download.Admission{JobID: "job-1", Position: 1}},
		users:     newFakeUsers(),
		settings:  &fakeSettings{search: true},
		flags:     gate.NewFlags(),
		bans:      fakeBans{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tb.handler = NewHandler(Deps{
		Messenger:         tb.messenger,
		Jobs:              tb.jobs,
		Users:             tb.users,
		Settings:          tb.settings,
		Flags:             tb.flags,
		Gate:              gate.NewKeeper(tb.flags, tb.bans, operatorID, logger),
		Playlists:         playlists,
		Texts:             englishTexts,
		Logger:            logger,
		BroadcastInterval: 1,
	})
	return tb
}

func textMessage(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, FirstName: "User"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i >= 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callback(userID int64, id, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      id,
			From:    &tgbotapi.User{ID: userID, FirstName: "User", UserName: "user"},
			Message: &tgbotapi.Message{MessageID: 11, Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}
