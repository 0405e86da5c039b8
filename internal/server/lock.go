package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PIN transport locations, checked in order.
const (
	lockHeader = "X-App-Lock"
	lockCookie = "va_lock"
	lockQuery  = "pin"
)

// safePaths are reachable without the PIN: uptime checks and the approval
// link, which must work straight from the emailed URL.
var safePaths = map[string]bool{
	"/":       true,
	"/health": true,
}

// PinLock gates the HTTP surface behind an operator PIN. With a bcrypt
// hash configured the plaintext PIN never lives in the environment; with
// neither configured the surface is open.
type PinLock struct {
	plain string
	hash  string
}

// NewPinLock builds the lock. hash takes precedence over plain.
func NewPinLock(plain, hash string) (*PinLock, error) {
	if hash != "" {
		if !strings.HasPrefix(hash, "$2") {
			return nil, fmt.Errorf("APP_LOCK_PIN_HASH is not a bcrypt hash")
		}
	}
	return &PinLock{plain: plain, hash: hash}, nil
}

// Enabled reports whether a PIN is configured at all.
func (l *PinLock) Enabled() bool {
	return l.plain != "" || l.hash != ""
}

// Verify checks a presented PIN.
func (l *PinLock) Verify(pin string) bool {
	if !l.Enabled() {
		return true
	}
	if pin == "" {
		return false
	}
	if l.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(l.hash), []byte(pin)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(l.plain), []byte(pin)) == 1
}

// Middleware enforces the PIN on all non-safe paths and serves the
// unlock/lockout cookie endpoints.
func (l *PinLock) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Enabled() || safePaths[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/approve/") {
			next.ServeHTTP(w, r)
			return
		}

		// unlock/lockout manage the cookie themselves
		if r.URL.Path == "/unlock" || r.URL.Path == "/lockout" {
			next.ServeHTTP(w, r)
			return
		}

		if l.Verify(l.presentedPIN(r)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "locked",
			"hint":  fmt.Sprintf("Provide %s header or ?pin=...", lockHeader),
		})
	})
}

// presentedPIN accepts header, cookie, or query parameter.
func (l *PinLock) presentedPIN(r *http.Request) string {
	if pin := r.Header.Get(lockHeader); pin != "" {
		return pin
	}
	if c, err := r.Cookie(lockCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get(lockQuery)
}

// handleUnlock sets the lock cookie after a correct one-time PIN entry.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get(lockQuery)
	if !s.lock.Verify(pin) {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "invalid pin"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     lockCookie,
		Value:    pin,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "unlocked"})
}

// handleLockout clears the cookie so this browser is locked again.
func (s *Server) handleLockout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   lockCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "locked out"})
}
