package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/config"
	"github.com/Shailesh2302/CipherChat/internal/logging"
)

type recordingTransport struct {
	sent []Message
	err  error
}

func (r *recordingTransport) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestSendVerification(t *testing.T) {
	tr := &recordingTransport{}
	m := NewMailer(tr, "https://cipherchat.example", time.Hour)

	require.NoError(t, m.SendVerification(context.Background(), "alice@example.com", "alice", "482913"))
	require.Len(t, tr.sent, 1)

	msg := tr.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "CipherChat Verification Code", msg.Subject)
	assert.Contains(t, msg.HTML, "482913")
	assert.Contains(t, msg.HTML, "https://cipherchat.example/verify/alice")
	assert.Contains(t, msg.Text, "482913")
	assert.Contains(t, msg.Text, "1h0m0s")
}

func TestSendVerification_EscapesUsername(t *testing.T) {
	tr := &recordingTransport{}
	m := NewMailer(tr, "http://localhost:8080", time.Hour)

	require.NoError(t, m.SendVerification(context.Background(), "x@example.com", "<b>x</b>", "111111"))
	assert.NotContains(t, tr.sent[0].HTML, "<b>x</b>")
}

func TestSendMessageNotice(t *testing.T) {
	tr := &recordingTransport{}
	m := NewMailer(tr, "http://localhost:8080", time.Hour)

	require.NoError(t, m.SendMessageNotice(context.Background(), "alice@example.com", "alice"))
	assert.Contains(t, tr.sent[0].HTML, "http://localhost:8080/dashboard")
	assert.NotContains(t, strings.ToLower(tr.sent[0].Subject), "verification")
}

func TestLogTransport_BodyAtDebug(t *testing.T) {
	var buf bytes.Buffer
	tr := &LogTransport{logger: logging.NewWithWriter(&buf, "debug", "text")}

	require.NoError(t, tr.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", Text: "code 654321"}))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "654321")
}

func TestTransportError(t *testing.T) {
	m := NewMailer(&recordingTransport{err: errors.New("boom")}, "http://localhost:8080", time.Hour)
	assert.Error(t, m.SendVerification(context.Background(), "a@example.com", "alice", "123456"))
}

func TestNewTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "text")

	tr := NewTransport(config.Mail{}, logger)
	require.IsType(t, &LogTransport{}, tr)
	require.NoError(t, tr.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", Text: "code 123456"}))
	assert.Contains(t, buf.String(), "a@example.com")
	assert.NotContains(t, buf.String(), "123456", "bodies stay out of info logs")

	tr = NewTransport(config.Mail{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "u@example.com"}, logger)
	assert.IsType(t, &SMTPTransport{}, tr)
}
