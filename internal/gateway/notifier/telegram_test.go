package notifier

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTelegramServer(t *testing.T, handler http.HandlerFunc) (*Telegram, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tg := NewTelegram("token123", "chat42")
	tg.APIBase = srv.URL
	return tg, srv
}

func TestTelegramSendText(t *testing.T) {
	t.Run("posts markdown payload", func(t *testing.T) {
		var gotPath string
		var gotBody []byte
		tg, _ := newTelegramServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotBody = make([]byte, r.ContentLength)
			r.Body.Read(gotBody)
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, tg.SendText("hello"))
		assert.Equal(t, "/bottoken123/sendMessage", gotPath)
		assert.Equal(t, "chat42", gjson.GetBytes(gotBody, "chat_id").String())
		assert.Equal(t, "hello", gjson.GetBytes(gotBody, "text").String())
		assert.Equal(t, "Markdown", gjson.GetBytes(gotBody, "parse_mode").String())
	})

	t.Run("retries until success", func(t *testing.T) {
		var calls atomic.Int32
		tg, _ := newTelegramServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, tg.SendText("retry me"))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("exhausted retries return the last error", func(t *testing.T) {
		var calls atomic.Int32
		tg, _ := newTelegramServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})

		err := tg.SendText("doomed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=502")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("missing credentials fail fast", func(t *testing.T) {
		err := NewTelegram("", "").SendText("x")
		assert.Error(t, err)
	})
}
