package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
)

func TestLogSenderWritesToken(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, s.SendVerificationEmail(context.Background(), "a@x.com", "tok123"))
	require.Contains(t, buf.String(), `"token":"tok123"`)
	require.Contains(t, buf.String(), `"to":"a@x.com"`)
}

func TestTemplateLink(t *testing.T) {
	tpl := Template{VerifyURL: "https://app.example/verify?src=mail"}
	require.Contains(t, tpl.plain("abc"), "https://app.example/verify?src=mail&token=abc")

	require.Contains(t, DefaultTemplate().plain("abc"), "code is abc")
	require.Equal(t, "Verify your email address", Template{}.subject())
}

func TestSendGridSender(t *testing.T) {
	var body map[string]any
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	s, err := NewSendGridSender(SendGridConfig{Key: "sg-key", From: "noreply@x.com", Host: srv.URL})
	require.NoError(t, err)

	require.NoError(t, s.SendVerificationEmail(context.Background(), "a@x.com", "tok123"))
	require.Contains(t, body, "personalizations")

	status = http.StatusInternalServerError
	require.Error(t, s.SendVerificationEmail(context.Background(), "a@x.com", "tok123"))
}

func TestSendGridSenderRequiresConfig(t *testing.T) {
	_, err := NewSendGridSender(SendGridConfig{Key: "k"})
	require.Error(t, err)
}

func TestMailgunSender(t *testing.T) {
	var to string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		to = r.FormValue("to")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<1@mg.x.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	s, err := NewMailgunSender(MailgunConfig{
		Key:     "mg-key",
		Domain:  "mg.x.com",
		From:    "noreply@x.com",
		APIBase: srv.URL + "/v3",
	})
	require.NoError(t, err)

	require.NoError(t, s.SendVerificationEmail(context.Background(), "a@x.com", "tok123"))
	require.Equal(t, "a@x.com", to)
}

type flakySender struct {
	calls atomic.Int32
	err   error
}

func (f *flakySender) SendVerificationEmail(context.Context, string, string) error {
	f.calls.Add(1)
	return f.err
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakySender{err: errors.New("provider down")}
	cfg := DefaultBreakerConfig()
	cfg.Timeout = time.Hour
	b := NewBreaker(inner, cfg)

	for i := 0; i < 3; i++ {
		err := b.SendVerificationEmail(context.Background(), "a@x.com", "t")
		require.ErrorIs(t, err, inner.err)
	}

	err := b.SendVerificationEmail(context.Background(), "a@x.com", "t")
	require.ErrorIs(t, err, authcore.ErrDependencyUnavailable)
	require.EqualValues(t, 3, inner.calls.Load())
	require.Equal(t, "open", b.State())
}

func TestBreakerPassesSuccess(t *testing.T) {
	inner := &flakySender{}
	b := NewBreaker(inner, DefaultBreakerConfig())

	require.NoError(t, b.SendVerificationEmail(context.Background(), "a@x.com", "t"))
	require.Equal(t, "closed", b.State())
}
