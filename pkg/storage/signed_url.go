package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token validation failures. Callers map both to an unauthorized response;
// the distinction only matters for logging.
var (
	ErrTokenInvalid = errors.New("download token invalid")
	ErrTokenExpired = errors.New("download token expired")
)

// SignedURLSigner mints download tokens for report artifacts. A token binds
// a job ID and the stored file path to an expiry, MACed with the server
// secret, so download links work without a session.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer. ttl bounds how long issued links
// stay valid.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate issues a token for the job's stored file.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("signed token needs a job id and path")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	path := base64.RawURLEncoding.EncodeToString([]byte(relPath))

	token := strings.Join([]string{jobID, expiry, path, s.sign(jobID, expiry, path)}, ".")
	return token, expiresAt, nil
}

// Parse verifies a token and extracts its claims. allowExpired skips the
// expiry check so cleanup can still resolve stale links to files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	jobID, expiry, path, sig := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(jobID, expiry, path)), []byte(sig)) {
		return "", "", time.Time{}, ErrTokenInvalid
	}

	expUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(path)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	return jobID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, expiry, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", jobID, expiry, encodedPath)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
