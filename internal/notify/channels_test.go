package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
)

func TestEmailChannel_Send(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	ch := newEmailChannel(srv.URL, "re_test", "Trade Ideas <ideas@example.com>", "https://app.example.com/", zap.NewNop())
	event := autogen.SuccessEvent(&autogen.Idea{Direction: "SHORT", CurrencyPair: "USD/JPY", Confidence: 55})
	require.NoError(t, ch.Send(context.Background(), &models.Profile{ID: "u1", Email: "trader@example.com"}, event))

	assert.Equal(t, []string{"trader@example.com"}, got.To)
	assert.Equal(t, "Trade Ideas <ideas@example.com>", got.From)
	assert.Equal(t, "New Trade Idea Generated", got.Subject)
	assert.Contains(t, got.HTML, "SHORT USD/JPY with 55% confidence")
	assert.Contains(t, got.HTML, "https://app.example.com/dashboard")
}

func TestEmailChannel_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"domain not verified"}`))
	}))
	defer srv.Close()

	ch := newEmailChannel(srv.URL, "re_test", "x@example.com", "", zap.NewNop())
	err := ch.Send(context.Background(), &models.Profile{Email: "a@example.com"}, autogen.Event{Kind: autogen.EventFailure, Title: "Auto-Generation Failed"})
	assert.ErrorContains(t, err, "403")
}

func TestNewEmailChannel_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewEmailChannel("", "from", "", zap.NewNop()))
}

func TestRenderEmail_EscapesMessage(t *testing.T) {
	out, err := renderEmail(autogen.Event{Kind: autogen.EventRetry, Title: "Auto-Generation Retry", Message: "<script>x</script>"}, "https://app")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Retry in Progress")
	assert.NotContains(t, out, "/dashboard")
}

func TestTelegramChannel_Send(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &m))
			form = url.Values{}
			for k, v := range m {
				if s, ok := v.(string); ok {
					form.Set(k, s)
				}
			}
		} else {
			form, _ = url.ParseQuery(string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	}))
	defer srv.Close()

	ch, err := newTelegramChannel("123:abc", srv.URL, zap.NewNop())
	require.NoError(t, err)

	p := &models.Profile{ID: "u1", NotifyTelegram: true, TelegramChatID: sql.NullInt64{Int64: 42, Valid: true}}
	event := autogen.Event{Kind: autogen.EventRetry, Title: "Auto-Generation Retry", Message: "retry <soon>"}
	require.NoError(t, ch.Send(context.Background(), p, event))

	assert.Equal(t, "42", form.Get("chat_id"))
	assert.Equal(t, "HTML", form.Get("parse_mode"))
	assert.Contains(t, form.Get("text"), "<b>Auto-Generation Retry</b>")
	assert.Contains(t, form.Get("text"), "retry &lt;soon&gt;")
}

func TestNewTelegramChannel_DisabledWithoutToken(t *testing.T) {
	ch, err := NewTelegramChannel("", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, ch)
}
