package stream

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CallClaims represents the JWT claims of a Stream call token.
type CallClaims struct {
	UserID   string   `json:"user_id"`
	CallCIDs []string `json:"call_cids,omitempty"`
	Role     string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// serverClaims authenticate server-side API requests.
type serverClaims struct {
	Server bool `json:"server"`
	jwt.RegisteredClaims
}

// GenerateCallToken signs a call token for userID, valid for ttl from now.
func GenerateCallToken(secret []byte, userID string, callCIDs []string, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := CallClaims{
		UserID:   userID,
		CallCIDs: callCIDs,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// generateServerToken signs the token used in the Authorization header of API calls.
func generateServerToken(secret []byte, now time.Time) (string, error) {
	claims := serverClaims{
		Server: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseCallToken parses and validates a call token signed with secret.
func ParseCallToken(secret []byte, tokenString string) (*CallClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CallClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*CallClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
