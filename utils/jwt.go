package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Default secret untuk development/demo
		secret = "TablesideDevSecret"
	}
	JWTSecret = []byte(secret)
}

type WaiterClaims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateWaiterToken membuat bearer token untuk staff, berlaku 24 jam.
func GenerateWaiterToken(userID uint, name string) (string, error) {
	claims := &WaiterClaims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tableside",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ParseWaiterToken memvalidasi token staff (dipakai sisi server).
func ParseWaiterToken(tokenString string) (*WaiterClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WaiterClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*WaiterClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid waiter token")
	}
	return claims, nil
}

// TokenExpired memeriksa expiry tanpa verifikasi signature. Client
// memakainya untuk membuang token tersimpan yang sudah pasti kadaluarsa,
// verifikasi sebenarnya tetap urusan server.
func TokenExpired(tokenString string) bool {
	claims := &WaiterClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
