package room

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auxroom/server/internal/domain"
)

type Claims struct {
	UserID string
	RoomID string
	Role   domain.Role
}

func (s service) generateJWT(userID, roomID string, role domain.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"room_id": roomID,
		"role":    string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}

	userID, _ := claims["user_id"].(string)
	roomID, _ := claims["room_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || roomID == "" {
		return nil, errors.New("invalid token")
	}

	return &Claims{
		UserID: userID,
		RoomID: roomID,
		Role:   domain.Role(role),
	}, nil
}
