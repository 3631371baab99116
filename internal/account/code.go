package account

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	// DefaultCodeTTL is how long a verification code stays valid.
	DefaultCodeTTL = time.Hour

	codeMin = 100000
	codeMax = 999999
)

// CodeGenerator issues 6-digit verification codes. Codes are not unique
// across users; they are only ever compared against one user's record.
type CodeGenerator struct {
	ttl    time.Duration
	random io.Reader
}

// NewCodeGenerator returns a generator backed by crypto/rand.
// A non-positive ttl falls back to DefaultCodeTTL.
func NewCodeGenerator(ttl time.Duration) *CodeGenerator {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeGenerator{ttl: ttl, random: rand.Reader}
}

// Generate returns a code uniformly drawn from [100000, 999999] and its expiry.
func (g *CodeGenerator) Generate(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(g.random, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), now.Add(g.ttl), nil
}

// TTL reports the validity window applied to new codes.
func (g *CodeGenerator) TTL() time.Duration {
	return g.ttl
}
