package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

// TokenDuration bounds the lifetime of a session: tokens expire 24 hours
// after being issued and there is no refresh mechanism.
const TokenDuration = 24 * time.Hour

type Claims struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type EncodeDecoder struct {
	key []byte
}

func NewEncodeDecoder(key []byte) *EncodeDecoder {
	return &EncodeDecoder{
		key: key,
	}
}

func (e *EncodeDecoder) Encode(user *sketchnet.User) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Provider: string(user.Provider),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sketchnet",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(e.key)
}

func (e *EncodeDecoder) Decode(tokenString string) (Claims, error) {
	claims := Claims{}

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return e.key, nil
	})
	if err != nil {
		return Claims{}, errors.New("invalid token", errors.Unauthorized(), errors.WithCause(err))
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return *claims, nil
	}

	return Claims{}, errors.New("could not get claims", errors.Unauthorized())
}
