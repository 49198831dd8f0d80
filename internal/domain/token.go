package domain

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const userIDClaim = "userId"

// UserIDFromToken decodes the bearer token payload without checking its
// signature and returns the userId claim.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	raw, ok := claims[userIDClaim]
	if !ok {
		return "", fmt.Errorf("%w: userId not found in token", ErrInvalidToken)
	}

	userID, ok := raw.(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: userId not found in token", ErrInvalidToken)
	}

	return userID, nil
}
