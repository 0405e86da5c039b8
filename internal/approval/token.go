package approval

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and verifies the single-use approval references
// embedded in approval links. A token is bound to one report id and
// expires shortly after the approval deadline would have fired anyway.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService. ttl should comfortably exceed
// the approval window so a late click still resolves idempotently
// instead of failing signature checks.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("approval secret is required")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type approvalClaims struct {
	ReportID string `json:"report_id"`
	jwt.RegisteredClaims
}

// Issue creates a signed approval reference for a report id.
func (t *TokenService) Issue(reportID string) (string, error) {
	now := time.Now()
	claims := approvalClaims{
		ReportID: reportID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing approval token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the report id it references.
func (t *TokenService) Parse(tokenStr string) (string, error) {
	var claims approvalClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing approval token: %w", err)
	}
	if !token.Valid || claims.ReportID == "" {
		return "", fmt.Errorf("invalid approval token")
	}
	return claims.ReportID, nil
}
