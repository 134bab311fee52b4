package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-bot/internal/config"
	"github.com/ytget/yt-bot/internal/model"
)

type apiCall struct {
	method string
	params map[string]string
	files  []string
}

type fakeBotAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	call := apiCall{method: method, params: map[string]string{}}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for field := range r.MultipartForm.File {
				call.files = append(call.files, field)
			}
		}
	} else {
		_ = r.ParseForm()
	}
	for k := range r.Form {
		call.params[k] = r.FormValue(k)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Test","username":"test_bot"}}`)
	case "deleteMessage", "answerCallbackQuery":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":%s,"type":"private"}}}`, orZero(call.params["chat_id"]))
	}
}

func (f *fakeBotAPI) last() apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.TelegramConfig{
		Token:       "123:abc",
		APIEndpoint: srv.URL + "/bot%s/%s",
		PollTimeout: 1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client, api
}

func TestClient_Connect(t *testing.T) {
	client, api := newTestClient(t)

	assert.Equal(t, "test_bot", client.Username())
	assert.Equal(t, "getMe", api.last().method)
}

func TestClient_StatusLifecycle(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	ref, err := client.SendStatus(ctx, 5, "Starting")
	require.NoError(t, err)
	assert.Equal(t, model.MessageRef{ChatID: 5, MessageID: 77}, ref)
	assert.Equal(t, "sendMessage", api.last().method)
	assert.Equal(t, "Starting", api.last().params["text"])

	require.NoError(t, client.EditStatus(ctx, ref, "Downloading: 10%"))
	assert.Equal(t, "editMessageText", api.last().method)
	assert.Equal(t, "77", api.last().params["message_id"])
	assert.Equal(t, "Downloading: 10%", api.last().params["text"])

	require.NoError(t, client.DeleteStatus(ctx, ref))
	assert.Equal(t, "deleteMessage", api.last().method)
}

func TestClient_SendKeyboard(t *testing.T) {
	client, api := newTestClient(t)

	err := client.SendKeyboard(context.Background(), 5, "Pick", [][]Button{{{Text: "Video", Data: "video:x"}}})

	require.NoError(t, err)
	markup := api.last().params["reply_markup"]
	assert.Contains(t, markup, `"callback_data":"video:x"`)
	assert.Contains(t, markup, `"text":"Video"`)
}

func TestClient_AnswerCallback(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.AnswerCallback(context.Background(), "cb-1", "Downloading..."))

	assert.Equal(t, "answerCallbackQuery", api.last().method)
	assert.Equal(t, "cb-1", api.last().params["callback_query_id"])
	assert.Equal(t, "Downloading...", api.last().params["text"])
}

func TestClient_SendMedia(t *testing.T) {
	tests := []struct {
		kind       model.MediaKind
		wantMethod string
		wantField  string
	}{
		{kind: model.MediaVideo, wantMethod: "sendVideo", wantField: "video"},
		{kind: model.MediaAudio, wantMethod: "sendAudio", wantField: "audio"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			client, api := newTestClient(t)
			path := filepath.Join(t.TempDir(), "file.bin")
			require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))

			err := client.SendMedia(context.Background(), 5, model.Artifact{Path: path, Kind: tt.kind, Size: 5})

			require.NoError(t, err)
			call := api.last()
			assert.Equal(t, tt.wantMethod, call.method)
			assert.Equal(t, []string{tt.wantField}, call.files)
			assert.Equal(t, "5", call.params["chat_id"])
		})
	}
}

func TestClient_CanceledContext(t *testing.T) {
	client, api := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, client.SendText(ctx, 5, "hi"), context.Canceled)
	assert.Equal(t, "getMe", api.last().method)
}
