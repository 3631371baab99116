package account

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestCodeGenerator_Generate(t *testing.T) {
	g := NewCodeGenerator(time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		code, expiry, err := g.Generate(now)
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
		assert.Equal(t, now.Add(time.Hour), expiry)
	}
}

func TestNewCodeGenerator_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultCodeTTL, NewCodeGenerator(0).TTL())
	assert.Equal(t, 15*time.Minute, NewCodeGenerator(15*time.Minute).TTL())
}

func TestCodeGenerator_RandomFailure(t *testing.T) {
	g := &CodeGenerator{ttl: time.Hour, random: failingReader{}}
	_, _, err := g.Generate(time.Now())
	assert.Error(t, err)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "verified", OutcomeVerified.String())
	assert.Equal(t, "expired", OutcomeExpired.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
