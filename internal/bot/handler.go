package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-bot/internal/download"
	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/i18n"
	"github.com/ytget/yt-bot/internal/model"
	"github.com/ytget/yt-bot/internal/platform"
	"github.com/ytget/yt-bot/internal/store"
)

// Callback data prefixes
const (
	CallbackPick = "pick"
	QueryPrefix  = "q:"
)

// DefaultBroadcastInterval keeps broadcasts under the Bot API flood limit
const DefaultBroadcastInterval = 50 * time.Millisecond

// Messenger is the part of the Bot API client the handler talks through
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Jobs accepts download requests and exposes the running ones
type Jobs interface {
	Submit(ctx context.Context, req model.Request) (download.Admission, error)
	Cancel(jobID string) error
	Active() []model.JobSnapshot
	QueueLen() int
}

// UserStore holds users and counters
type UserStore interface {
	UpsertUserSeen(ctx context.Context, id int64, firstName, username string) error
	SetBanned(ctx context.Context, id int64, banned bool) error
	CountUsers(ctx context.Context) (store.UserCounts, error)
	ListActiveUserIDs(ctx context.Context) ([]int64, error)
	GetStat(ctx context.Context, key string) (int64, error)
}

// RuntimeSettings are the persisted operator switches
type RuntimeSettings interface {
	MaintenanceMode(ctx context.Context) (bool, error)
	SetMaintenanceMode(ctx context.Context, on bool) error
	SearchEnabled(ctx context.Context) (bool, error)
	SetSearchEnabled(ctx context.Context, on bool) error
}

// Gatekeeper decides who may use the bot
type Gatekeeper interface {
	Admit(ctx context.Context, userID int64) gate.Decision
	IsOperator(userID int64) bool
}

// PlaylistResolver lists the videos of a playlist
type PlaylistResolver interface {
	ParsePlaylist(ctx context.Context, playlistID string) ([]platform.PlaylistEntry, error)
}

// Translator renders user-facing texts
type Translator interface {
	Textf(key string, args ...any) string
}

// Deps groups the collaborators of a Handler
type Deps struct {
	Messenger         Messenger
	Jobs              Jobs
	Users             UserStore
	Settings          RuntimeSettings
	Flags             *gate.Flags
	Gate              Gatekeeper
	Playlists         PlaylistResolver
	Texts             Translator
	Logger            *slog.Logger
	QueryTTL          time.Duration
	BroadcastInterval time.Duration
}

// Handler turns Telegram updates into replies and download requests. It
// never blocks the receive loop on a download; slow lookups run in
// background goroutines tracked for shutdown.
type Handler struct {
	msg       Messenger
	jobs      Jobs
	users     UserStore
	settings  RuntimeSettings
	flags     *gate.Flags
	gate      Gatekeeper
	playlists PlaylistResolver
	texts     Translator
	logger    *slog.Logger
	queries   *queryTable
	pace      time.Duration

	wg sync.WaitGroup
}

// NewHandler creates a new update handler
func NewHandler(deps Deps) *Handler {
	if deps.Texts == nil {
		deps.Texts = i18n.NewLocalization(i18n.DefaultLanguage)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Flags == nil {
		deps.Flags = gate.NewFlags()
	}
	if deps.BroadcastInterval <= 0 {
		deps.BroadcastInterval = DefaultBroadcastInterval
	}
	return &Handler{
		msg:       deps.Messenger,
		jobs:      deps.Jobs,
		users:     deps.Users,
		settings:  deps.Settings,
		flags:     deps.Flags,
		gate:      deps.Gate,
		playlists: deps.Playlists,
		texts:     deps.Texts,
		logger:    deps.Logger.With("component", "bot"),
		queries:   newQueryTable(deps.QueryTTL, DefaultMaxQueries),
		pace:      deps.BroadcastInterval,
	}
}

// Run handles updates until ctx ends or the channel closes, then waits for
// background work
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer h.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// Wait blocks until background lookups and broadcasts finish
func (h *Handler) Wait() {
	h.wg.Wait()
}

// HandleUpdate routes one update
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("update handler panicked", "update_id", upd.UpdateID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	h.touchUser(ctx, msg.From)

	if msg.IsCommand() && h.gate.IsOperator(msg.From.ID) && h.handleOperatorCommand(ctx, chatID, msg) {
		return
	}

	if !h.admitted(ctx, chatID, msg.From.ID) {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.reply(ctx, chatID, i18n.KeyGreeting)
		default:
			h.reply(ctx, chatID, i18n.KeyHelp)
		}
		return
	}

	src := platform.ParseSource(msg.Text)
	switch src.Kind {
	case platform.SourceVideo:
		h.offerFormats(ctx, chatID, src.VideoID)
	case platform.SourcePlaylist:
		h.spawn(func() { h.offerPlaylist(ctx, chatID, src.PlaylistID) })
	case platform.SourceQuery:
		if !h.searchEnabled(ctx) {
			h.reply(ctx, chatID, i18n.KeyInvalidLink)
			return
		}
		h.offerFormats(ctx, chatID, QueryPrefix+h.queries.Put(src.Query))
	case platform.SourceUnsupported:
		h.reply(ctx, chatID, i18n.KeyUnsupported)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		h.answer(ctx, cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	h.touchUser(ctx, cb.From)

	prefix, ref, ok := strings.Cut(cb.Data, ":")
	if !ok || ref == "" {
		h.answer(ctx, cb.ID, "")
		return
	}

	if prefix == CallbackPick {
		h.answer(ctx, cb.ID, "")
		if !h.admitted(ctx, chatID, cb.From.ID) {
			return
		}
		h.offerFormats(ctx, chatID, ref)
		return
	}

	kind, ok := model.ParseMediaKind(prefix)
	if !ok {
		h.answer(ctx, cb.ID, "")
		return
	}
	target := model.Target{Kind: kind}
	if token, isQuery := strings.CutPrefix(ref, QueryPrefix); isQuery {
		query, found := h.queries.Get(token)
		if !found {
			h.answer(ctx, cb.ID, h.texts.Textf(i18n.KeyQueryExpired))
			h.reply(ctx, chatID, i18n.KeyQueryExpired)
			return
		}
		target.Query = query
	} else {
		target.VideoID = ref
	}

	requester := model.Requester{ID: cb.From.ID, FirstName: cb.From.FirstName, Username: cb.From.UserName}
	adm, err := h.jobs.Submit(ctx, model.NewRequest(requester, chatID, target))
	if err != nil {
		// gate and queue rejections were already reported to the chat
		if _, isJobErr := download.KindOf(err); isJobErr {
			h.answer(ctx, cb.ID, "")
			return
		}
		h.logger.Warn("failed to submit request", "user_id", cb.From.ID, "error", err)
		h.answer(ctx, cb.ID, h.texts.Textf(i18n.KeyErrorGeneral, err))
		return
	}

	text := h.texts.Textf(i18n.KeyDownloading)
	if adm.Position > 1 {
		text = h.texts.Textf(i18n.KeyQueued, adm.Position)
	}
	h.answer(ctx, cb.ID, text)
}

// admitted applies the gate to chat traffic. Banned users get no reply.
func (h *Handler) admitted(ctx context.Context, chatID, userID int64) bool {
	decision := h.gate.Admit(ctx, userID)
	if decision.Allowed {
		return true
	}
	if decision.Reason == gate.ReasonMaintenance {
		h.reply(ctx, chatID, i18n.KeyMaintenance)
	}
	return false
}

func (h *Handler) offerFormats(ctx context.Context, chatID int64, ref string) {
	rows := [][]Button{{
		{Text: h.texts.Textf(i18n.KeyButtonVideo), Data: string(model.MediaVideo) + ":" + ref},
		{Text: h.texts.Textf(i18n.KeyButtonAudio), Data: string(model.MediaAudio) + ":" + ref},
	}}
	if err := h.msg.SendKeyboard(ctx, chatID, h.texts.Textf(i18n.KeyChooseFormat), rows); err != nil {
		h.logger.Warn("failed to send format keyboard", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) offerPlaylist(ctx context.Context, chatID int64, playlistID string) {
	entries, err := h.playlists.ParsePlaylist(ctx, playlistID)
	if err != nil {
		h.logger.Warn("failed to resolve playlist", "playlist_id", playlistID, "error", err)
		h.reply(ctx, chatID, i18n.KeyPlaylistError)
		return
	}
	if len(entries) == 0 {
		h.reply(ctx, chatID, i18n.KeyPlaylistEmpty)
		return
	}

	rows := make([][]Button, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []Button{{Text: e.Title, Data: CallbackPick + ":" + e.VideoID}})
	}
	if err := h.msg.SendKeyboard(ctx, chatID, h.texts.Textf(i18n.KeyPlaylistPick), rows); err != nil {
		h.logger.Warn("failed to send playlist keyboard", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) searchEnabled(ctx context.Context) bool {
	if h.settings == nil {
		return true
	}
	on, err := h.settings.SearchEnabled(ctx)
	if err != nil {
		h.logger.Warn("failed to read search setting", "error", err)
		return true
	}
	return on
}

func (h *Handler) touchUser(ctx context.Context, u *tgbotapi.User) {
	if h.users == nil {
		return
	}
	if err := h.users.UpsertUserSeen(ctx, u.ID, u.FirstName, u.UserName); err != nil {
		h.logger.Warn("failed to record user", "user_id", u.ID, "error", err)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, key string, args ...any) {
	h.send(ctx, chatID, h.texts.Textf(key, args...))
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.msg.SendText(ctx, chatID, text); err != nil {
		h.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	if err := h.msg.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.Debug("failed to answer callback", "callback_id", callbackID, "error", err)
	}
}

func (h *Handler) spawn(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("background task panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
