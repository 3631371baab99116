package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/validate"
)

func TestSignUp(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, false},
		{"short password", `{"username":"alice","email":"alice@example.com","password":"abc"}`, true},
		{"missing email", `{"username":"alice","password":"secret1"}`, true},
		{"bad email", `{"username":"alice","email":"alice","password":"secret1"}`, true},
		{"username too short", `{"username":"a","email":"a@example.com","password":"secret1"}`, true},
		{"username with space", `{"username":"al ice","email":"a@example.com","password":"secret1"}`, true},
		{"padded username", `{"username":"  alice ","email":"alice@example.com","password":"secret1"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req struct {
				Username string `json:"username"`
			}
			err := validate.SignUp.Decode(strings.NewReader(tt.body), &req)
			if tt.wantErr {
				var verr *validate.Error
				require.ErrorAs(t, err, &verr)
				assert.NotEmpty(t, verr.Problems)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSendMessage_ContentLength(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", true},
		{"blank after trim", "     ", true},
		{"short greeting", "Hello!", false},
		{"single character", "x", false},
		{"maximum", strings.Repeat("x", 300), false},
		{"too long", strings.Repeat("x", 301), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"username":"alice","content":"` + tt.content + `"}`
			var req struct {
				Content string `json:"content"`
			}
			err := validate.SendMessage.Decode(strings.NewReader(body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, req.Content)
		})
	}
}

func TestDecode_KeepsVerbatimContent(t *testing.T) {
	var req struct {
		Content string `json:"content"`
	}
	err := validate.SendMessage.Decode(strings.NewReader(`{"username":"alice","content":"  hello there, friend  "}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "  hello there, friend  ", req.Content)
}

func TestAcceptMessages(t *testing.T) {
	var req struct {
		AcceptMessages bool `json:"acceptMessages"`
	}
	require.NoError(t, validate.AcceptMessages.Decode(strings.NewReader(`{"acceptMessages":false}`), &req))
	assert.False(t, req.AcceptMessages)

	assert.Error(t, validate.AcceptMessages.Decode(strings.NewReader(`{"acceptMessages":"yes"}`), &req))
	assert.Error(t, validate.AcceptMessages.Decode(strings.NewReader(`{}`), &req))
}

func TestVerifyCode(t *testing.T) {
	var req struct{}
	assert.NoError(t, validate.VerifyCode.Decode(strings.NewReader(`{"username":"alice","code":"482913"}`), &req))
	assert.Error(t, validate.VerifyCode.Decode(strings.NewReader(`{"username":"alice","code":"48291"}`), &req))
	assert.Error(t, validate.VerifyCode.Decode(strings.NewReader(`{"username":"alice","code":"abcdef"}`), &req))
	assert.Error(t, validate.VerifyCode.Decode(strings.NewReader(`{"username":"alice","code":" 482913"}`), &req),
		"codes are compared exactly, so padding is rejected up front")
}

func TestDecode_Malformed(t *testing.T) {
	var req struct{}
	for _, body := range []string{`not json`, `null`, ``} {
		err := validate.SignIn.Decode(strings.NewReader(body), &req)
		assert.ErrorIs(t, err, validate.ErrMalformed, body)
	}
}

func TestCheck_Username(t *testing.T) {
	assert.NoError(t, validate.Username.Check(map[string]interface{}{"username": "bob_99"}))
	assert.Error(t, validate.Username.Check(map[string]interface{}{"username": "bob!"}))
	assert.Error(t, validate.Username.Check(map[string]interface{}{}))
}
