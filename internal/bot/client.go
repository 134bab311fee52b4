package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-bot/internal/config"
	"github.com/ytget/yt-bot/internal/model"
)

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string
}

// Client wraps the Bot API. It serves the download pipeline (status
// messages, notices), delivery (media uploads) and the handler (keyboards,
// callback answers).
type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	logger      *slog.Logger
}

// NewClient connects to the Bot API and verifies the token
func NewClient(cfg config.TelegramConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	_ = tgbotapi.SetLogger(botLogger{logger: logger.With("component", "tgbotapi")})

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logger.Info("authorized on telegram", "username", api.Self.UserName)
	return &Client{api: api, pollTimeout: cfg.PollTimeout, logger: logger.With("component", "telegram")}, nil
}

// Username returns the bot's username
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// SendStatus posts a new status message
func (c *Client) SendStatus(ctx context.Context, chatID int64, text string) (model.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return model.MessageRef{}, err
	}
	msg, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return model.MessageRef{}, err
	}
	return model.MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

// EditStatus replaces the text of a status message
func (c *Client) EditStatus(ctx context.Context, ref model.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text))
	return err
}

// DeleteStatus removes a status message
func (c *Client) DeleteStatus(ctx context.Context, ref model.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

// SendText posts a plain message
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendKeyboard posts text with one inline keyboard row per element of rows
func (c *Client) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboardMarkup(rows)
	_, err := c.api.Send(msg)
	return err
}

// AnswerCallback acknowledges a button press with a short toast
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// SendMedia uploads artifact as a video or an audio track
func (c *Client) SendMedia(ctx context.Context, chatID int64, artifact model.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := tgbotapi.FilePath(artifact.Path)
	var media tgbotapi.Chattable
	switch artifact.Kind {
	case model.MediaAudio:
		media = tgbotapi.NewAudio(chatID, file)
	default:
		video := tgbotapi.NewVideo(chatID, file)
		video.SupportsStreaming = true
		media = video
	}
	_, err := c.api.Send(media)
	return err
}

// Updates starts long polling. The channel closes after ctx ends.
func (c *Client) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	updates := c.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		c.api.StopReceivingUpdates()
	}()
	return updates
}

func keyboardMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// botLogger routes library logging into slog
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Debug(fmt.Sprint(v...))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
