package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidNonce = errors.New("invalid nonce")
)

type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	UserID       int64    `json:"user_id"`
	Role         string   `json:"role"`
	Capabilities []string `json:"caps,omitempty"`
	jwtlib.RegisteredClaims
}

// Can reports whether the token grants any of caps.
func (c *Claims) Can(caps ...string) bool {
	for _, have := range c.Capabilities {
		for _, want := range caps {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NonceClaims bind a short-lived token to one action, e.g. "fileupload-<field id>".
type NonceClaims struct {
	Action string `json:"action"`
	FormID int64  `json:"form_id"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) GenerateToken(userID int64, role string, caps ...string) (string, error) {
	claims := Claims{
		UserID:       userID,
		Role:         role,
		Capabilities: caps,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, s.keyFunc, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueNonce signs a nonce for action. The returned id is unique per nonce
// and lets callers enforce single use.
func (s *Service) IssueNonce(action string, formID int64, ttl time.Duration) (string, string, error) {
	id := uuid.NewString()
	now := time.Now()
	claims := NonceClaims{
		Action: action,
		FormID: formID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return token, id, nil
}

// VerifyNonce checks signature, expiry and that the nonce was issued for action.
func (s *Service) VerifyNonce(tokenStr, action string) (*NonceClaims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &NonceClaims{}, s.keyFunc, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidNonce
	}
	claims, ok := token.Claims.(*NonceClaims)
	if !ok || claims.Action == "" || claims.Action != action || claims.ID == "" {
		return nil, ErrInvalidNonce
	}
	return claims, nil
}

func (s *Service) keyFunc(*jwtlib.Token) (any, error) {
	return s.secret, nil
}
