package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/logging"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a?||b?||c?", "a?||b?||c?"},
		{"  a? || b?||  c?  \n", "a?||b?||c?"},
		{"a?||||b?||", "a?||b?"},
		{"   ", ""},
		{"single question?", "single question?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestLoadPrompt_Default(t *testing.T) {
	p, err := LoadPrompt("")
	require.NoError(t, err)
	assert.Contains(t, p.Text, "'||'")
	assert.Equal(t, 400, p.MaxOutputTokens)
	assert.InDelta(t, 0.7, p.Temperature, 1e-9)
}

func TestLoadPrompt_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompt: ask three things\ntemperature: 1.2\n"), 0o600))

	p, err := LoadPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "ask three things", p.Text)
	assert.Equal(t, 400, p.MaxOutputTokens)

	_, err = LoadPrompt(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParsePrompt_Strict(t *testing.T) {
	_, err := ParsePrompt([]byte("prompt: hi\ntemprature: 0.5\n"))
	assert.Error(t, err, "unknown key must be rejected")

	_, err = ParsePrompt([]byte("temperature: 0.5\n"))
	assert.Error(t, err, "prompt is required")

	_, err = ParsePrompt([]byte("prompt: hi\ntemperature: 3\n"))
	assert.Error(t, err)
}

func geminiServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 400, req.GenerationConfig.MaxOutputTokens)

		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []interface{}{
					map[string]interface{}{"content": map[string]interface{}{
						"parts": []interface{}{map[string]interface{}{"text": text}},
					}},
				},
			})
		}
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	p, err := LoadPrompt("")
	require.NoError(t, err)
	return NewClient(baseURL, "gemini-1.5-flash", "test-key", p, 5*time.Second, false)
}

func TestClient_Suggest(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, "What inspires you? || Favorite book?||\n")
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "What inspires you?||Favorite book?", got)
}

func TestClient_Suggest_Failures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		srv := geminiServer(t, http.StatusTooManyRequests, "")
		defer srv.Close()
		_, err := newTestClient(t, srv.URL).Suggest(context.Background())
		assert.Error(t, err)
	})

	t.Run("blank text", func(t *testing.T) {
		srv := geminiServer(t, http.StatusOK, " || ")
		defer srv.Close()
		_, err := newTestClient(t, srv.URL).Suggest(context.Background())
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestClient_StubMode(t *testing.T) {
	c := NewClient("http://unused.invalid", "m", "", nil, 0, true)
	got, err := c.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StubSuggestion, got)
}

type failingSuggester struct{}

func (failingSuggester) Suggest(context.Context) (string, error) {
	return "", ErrEmptyResponse
}

func TestHandleSuggestMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ok", func(t *testing.T) {
		r := gin.New()
		r.POST("/api/suggest-messages", HandleSuggestMessages(NewClient("", "", "", nil, 0, true), logging.Discard()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/suggest-messages", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, StubSuggestion, body["suggestion"])
	})

	t.Run("failure", func(t *testing.T) {
		r := gin.New()
		r.POST("/api/suggest-messages", HandleSuggestMessages(failingSuggester{}, logging.Discard()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/suggest-messages", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Failed to generate questions"}`, w.Body.String())
	})
}
