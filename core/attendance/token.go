package attendance

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// An attendance token is a short-lived signed credential binding one
// (session, date) pair. It is purely computational: no storage on issue, none
// on verify. The signed payload carries a minute slot on top of the expiry
// timestamp so the teacher's display rotates the code every step even while
// the underlying claims stay valid; a token from the previous slot is still
// accepted to cover scans right at the rotation tick.
//
// Wire format: base64url(sessionID|date|exp|slot|sig) where
// sig = base64url(HMAC-SHA256(sessionID|date|exp|slot)).

const tokenStep = 60 * time.Second // display rotation period

var (
	tokenSalt = []byte("mahudhurio.core.attendance.token")
	nowFunc   = time.Now // mockable

	// verification failures; all of them must be rejected uniformly
	ErrTokenMalformed    = errors.New("malformed token")
	ErrTokenBadSignature = errors.New("token signature mismatch")
	ErrTokenExpired      = errors.New("token expired")
)

// IsTokenError reports whether err is one of the token verification failures.
func IsTokenError(err error) bool {
	return err == ErrTokenMalformed || err == ErrTokenBadSignature || err == ErrTokenExpired
}

type (
	// TokenClaims is the verified content of an attendance token.
	TokenClaims struct {
		SessionID string
		Date      string // DateFormat
	}

	// TokenService issues and verifies signed, expiring attendance tokens.
	TokenService struct {
		key []byte
		ttl time.Duration
	}
)

func NewTokenService(secretKey string, ttl time.Duration) *TokenService {
	key := sha256.Sum256(append(tokenSalt, secretKey...))
	return &TokenService{key: key[:], ttl: ttl}
}

// Issue produces a token for (sessionID, date). No database write.
func (svc *TokenService) Issue(sessionID, date string) string {
	now := nowFunc()
	exp := now.Add(svc.ttl).Unix()
	slot := now.Unix() / int64(tokenStep/time.Second)

	payload := fmt.Sprintf("%s|%s|%d|%d", sessionID, date, exp, slot)
	sig := svc.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + "|" + sig))
}

// ExpiresIn returns the seconds until the next rotation tick, i.e. how long
// the token just issued will be displayed before re-issue.
func (svc *TokenService) ExpiresIn() int {
	now := nowFunc().Unix()
	step := int64(tokenStep / time.Second)
	next := (now/step + 1) * step
	return int(next - now)
}

// Verify validates the signature, expiry and rotation slot of a token.
// It never panics on attacker-controlled input; failures are typed and the
// caller must fail closed on any of them.
func (svc *TokenService) Verify(token string) (TokenClaims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return TokenClaims{}, ErrTokenMalformed
	}

	// sessionID|date|exp|slot|sig => 5 parts
	parts := strings.Split(string(raw), "|")
	if len(parts) != 5 {
		return TokenClaims{}, ErrTokenMalformed
	}
	sessionID, date, expStr, slotStr, sig := parts[0], parts[1], parts[2], parts[3], parts[4]

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return TokenClaims{}, ErrTokenMalformed
	}
	slot, err := strconv.ParseInt(slotStr, 10, 64)
	if err != nil {
		return TokenClaims{}, ErrTokenMalformed
	}

	payload := strings.Join(parts[:4], "|")
	expected := svc.sign(payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 0 {
		return TokenClaims{}, ErrTokenBadSignature
	}

	now := nowFunc().Unix()
	if exp < now {
		return TokenClaims{}, ErrTokenExpired
	}
	// current or previous slot only (tolerance for scans at the rotation tick)
	currSlot := now / int64(tokenStep/time.Second)
	if slot != currSlot && slot != currSlot-1 {
		return TokenClaims{}, ErrTokenExpired
	}

	return TokenClaims{SessionID: sessionID, Date: date}, nil
}

func (svc *TokenService) sign(payload string) string {
	h := hmac.New(sha256.New, svc.key)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
