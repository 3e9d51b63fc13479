package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Signer produces API-Sign headers and strictly increasing nonces.
type Signer struct {
	secret []byte
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewSigner decodes the base64 API secret.
func NewSigner(secret string) (*Signer, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("kraken: decode api secret: %w", err)
	}
	return &Signer{secret: key, now: time.Now}, nil
}

// Nonce returns the current time in milliseconds, bumped past the previous
// nonce when two requests land in the same millisecond.
func (s *Signer) Nonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.now().UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return strconv.FormatInt(n, 10)
}

// Sign computes base64(HMAC-SHA512(secret, path + SHA256(nonce + postdata))).
func (s *Signer) Sign(path, nonce, postdata string) string {
	inner := sha256.Sum256([]byte(nonce + postdata))

	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(path))
	mac.Write(inner[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
