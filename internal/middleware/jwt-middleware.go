package middleware

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/utils"
)

type userIdKey string

// UserIDKey holds the authenticated user's id (int64) in the request
// context.
const UserIDKey userIdKey = "userId"

func JWTAuth(publicKey *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Missing Authorization header", "auth"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Invalid Authorization header format", "auth"))
				return
			}

			claims, err := utils.ParseAndVerifySign(parts[1], publicKey)
			if err != nil {
				log.Error().Err(err).Msg("jwt verify failed")
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Invalid or expired token", "auth"))
				return
			}

			userID, err := strconv.ParseInt(claims.Sub, 10, 64)
			if err != nil {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Malformed subject claim", "auth"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
