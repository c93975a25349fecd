package auth

import (
	"fmt"
	"time"

	"pickem/config"
	"pickem/repository"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserId      int      `json:"user_id"`
	Permissions []string `json:"permissions"`
	Exp         int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) {
	permissions := []string{}
	if jwtClaims.(jwt.MapClaims)["permissions"] != nil {
		for _, perm := range jwtClaims.(jwt.MapClaims)["permissions"].([]interface{}) {
			permissions = append(permissions, perm.(string))
		}
	}
	claims.Permissions = permissions
	claims.UserId = int(jwtClaims.(jwt.MapClaims)["user_id"].(float64))
	claims.Exp = int64(jwtClaims.(jwt.MapClaims)["exp"].(float64))
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

// SessionClaims is the short-lived credential minted by the token
// exchange. It is scoped to one (participant, round) pair and expires
// at the round's deadline.
type SessionClaims struct {
	UserId  int   `json:"user_id"`
	RoundId int   `json:"round_id"`
	Exp     int64 `json:"exp"`
}

func (claims *SessionClaims) FromJWTClaims(jwtClaims jwt.Claims) error {
	mapClaims, ok := jwtClaims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("unexpected claims type")
	}
	if mapClaims["kind"] != "participant" {
		return fmt.Errorf("not a participant session")
	}
	claims.UserId = int(mapClaims["user_id"].(float64))
	claims.RoundId = int(mapClaims["round_id"].(float64))
	claims.Exp = int64(mapClaims["exp"].(float64))
	return nil
}

func (claims *SessionClaims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

func CreateToken(user *repository.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"user_id":     user.Id,
			"permissions": user.Permissions,
			"exp":         time.Now().Add(time.Hour * 24 * 21).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// CreateSessionToken mints the participant session credential returned
// by the access-token exchange. expiresAt is the round deadline.
func CreateSessionToken(userId int, roundId int, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"kind":     "participant",
			"user_id":  userId,
			"round_id": roundId,
			"exp":      expiresAt.Unix(),
		})
	return token.SignedString([]byte(config.Env().JWTSecret))
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}
	return token, nil
}
