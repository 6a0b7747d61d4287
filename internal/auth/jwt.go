package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadClaims are the JWT claims for a short-lived backup-file
// download grant, used so a browser download link doesn't need to carry
// the session cookie.
type DownloadClaims struct {
	jwt.RegisteredClaims
	BackupID string `json:"backup_id"`
}

// DownloadIssuer issues and validates backup-download JWTs.
type DownloadIssuer struct {
	secret []byte
}

// NewDownloadIssuer creates an issuer with the given shared secret.
func NewDownloadIssuer(secret string) *DownloadIssuer {
	return &DownloadIssuer{secret: []byte(secret)}
}

// IssueDownloadGrant creates a JWT authorizing a single backup download.
func (j *DownloadIssuer) IssueDownloadGrant(userID, backupID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := DownloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "swi",
		},
		BackupID: backupID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateDownloadGrant parses and validates a backup-download JWT.
func (j *DownloadIssuer) ValidateDownloadGrant(tokenStr string) (*DownloadClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &DownloadClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*DownloadClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
