package websocket

import (
	"crypto/rsa"
	"net/http"
	"strconv"
	"strings"

	"github.com/tipurk/neechat/internal/utils"
)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthenticatorFunc resolves the connecting request to a user id, or fails
// the handshake.
type AuthenticatorFunc func(r *http.Request) (int64, error)

func JWTAuthenticator(publicKey *rsa.PublicKey) AuthenticatorFunc {
	return func(r *http.Request) (int64, error) {
		token := getTokenFromRequest(r)
		if token == "" {
			return 0, &AuthError{Message: "missing token"}
		}

		claims, err := utils.ParseAndVerifySign(token, publicKey)
		if err != nil {
			return 0, &AuthError{Message: "invalid or expired token"}
		}

		userID, err := strconv.ParseInt(claims.Sub, 10, 64)
		if err != nil {
			return 0, &AuthError{Message: "malformed subject claim"}
		}

		return userID, nil
	}
}

func getTokenFromRequest(r *http.Request) string {
	// Option 1: Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Option 2: query parameter, for browser websocket clients that cannot
	// set headers on the handshake
	return r.URL.Query().Get("token")
}
