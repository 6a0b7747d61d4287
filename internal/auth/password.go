package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/pkg/types"
)

// SessionTTL is how long an issued session cookie remains valid.
const SessionTTL = 14 * 24 * time.Hour

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether plaintext matches the stored bcrypt hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Login validates credentials and, on success, issues and persists a new
// session token.
func Login(ctx context.Context, store *db.Store, name, password string) (*types.Session, error) {
	user, err := store.GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid username or password")
	}

	token, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	sess := &types.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	_ = store.TouchLastLogin(ctx, user.ID, time.Now())
	return sess, nil
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
