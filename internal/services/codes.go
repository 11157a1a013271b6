package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	codeLength = 6
	codeChars  = "0123456789"
)

// CodeSender delivers a verification code to the account owner
type CodeSender interface {
	SendCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// LogCodeSender writes verification codes to the server log.
// Used where no mail delivery is configured.
type LogCodeSender struct{}

// SendCode logs the code
func (LogCodeSender) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	log.Info().
		Str("email", email).
		Str("code", code).
		Time("expires_at", expiresAt).
		Msg("Verification code issued")
	return nil
}

// generateCode generates a random numeric verification code
func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code[i] = codeChars[n.Int64()]
	}
	return string(code), nil
}
