package util

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT creates a token carrying the agent's identity. Every claim,
// unclaim and reply is attributed to this id; there is no ambient agent
// identity anywhere else.
func GenerateJWT(agentID, agentName, secret string) (string, error) {
	claims := jwt.MapClaims{
		"agent_id":   agentID,
		"agent_name": agentName,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT validates a token and extracts the agent id and name.
func ParseJWT(tokenStr, secret string) (agentID, agentName string, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}

	if !token.Valid {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenMalformed
	}

	agentID, ok = claims["agent_id"].(string)
	if !ok || agentID == "" {
		return "", "", jwt.ErrTokenMalformed
	}

	agentName, _ = claims["agent_name"].(string)
	return agentID, agentName, nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
