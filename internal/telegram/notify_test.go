package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notifyEndpoint is a scriptable stand-in for the Telegram bot API.
type notifyEndpoint struct {
	mu           sync.Mutex
	sends        int
	sendResponse string
	server       *httptest.Server
}

func newNotifyEndpoint(t *testing.T, sendResponse string) *notifyEndpoint {
	t.Helper()
	ne := &notifyEndpoint{sendResponse: sendResponse}
	ne.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Bot","username":"test_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			ne.mu.Lock()
			ne.sends++
			body := ne.sendResponse
			ne.mu.Unlock()
			w.Write([]byte(body))
		default:
			w.Write([]byte(`{"ok":true,"result":{}}`))
		}
	}))
	t.Cleanup(ne.server.Close)
	return ne
}

func (ne *notifyEndpoint) Endpoint() string {
	return ne.server.URL + "/bot%s/%s"
}

func (ne *notifyEndpoint) Sends() int {
	ne.mu.Lock()
	defer ne.mu.Unlock()
	return ne.sends
}

func TestNotifySendsMessage(t *testing.T) {
	ne := newNotifyEndpoint(t, `{"ok":true,"result":{"message_id":1,"chat":{"id":777,"type":"private"},"date":1,"text":"GitHub webhook event: push"}}`)

	err := notify("test-token", 777, "GitHub webhook event: push", ne.Endpoint())
	require.NoError(t, err)
	assert.Equal(t, 1, ne.Sends())
}

func TestNotifyReturnsSendFailure(t *testing.T) {
	ne := newNotifyEndpoint(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)

	err := notify("test-token", 777, "hello", ne.Endpoint())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNotifyRequiresTokenTargetAndText(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		chatID int64
		text   string
	}{
		{"empty token", "", 777, "hello"},
		{"zero chat id", "test-token", 0, "hello"},
		{"empty text", "test-token", 777, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation fails before any client is built, so no endpoint
			// is contacted.
			assert.Error(t, Notify(tt.token, tt.chatID, tt.text))
		})
	}
}
