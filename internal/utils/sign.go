package utils

import (
	"crypto/rsa"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 7 * 24 * time.Hour

type Claims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Iat      int64  `json:"iat"`
	Exp      int64  `json:"exp"`
	jwt.RegisteredClaims
}

// IssueToken signs a long-lived access token for the user. Single token,
// no refresh rotation: clients re-login when it lapses.
func IssueToken(userID int64, username string, privateKey *rsa.PrivateKey) (string, error) {
	issueAt := time.Now().Unix()

	claims := &Claims{
		Sub:      strconv.FormatInt(userID, 10),
		Username: username,
		Iat:      issueAt,
		Exp:      issueAt + int64(tokenTTL.Seconds()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":      claims.Sub,
		"username": claims.Username,
		"iat":      claims.Iat,
		"exp":      claims.Exp,
	})

	return token.SignedString(privateKey)
}

func ParseAndVerifySign(token string, pubKey *rsa.PublicKey) (*Claims, error) {
	parsedToken, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return pubKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsedToken.Claims.(*Claims)
	if !ok || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if time.Unix(claims.Exp, 0).Before(time.Now()) {
		return nil, fmt.Errorf("token expired")
	}

	return claims, nil
}
