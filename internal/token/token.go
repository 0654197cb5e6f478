// Package token подписанный токен сессии администратора.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("token is not valid")
	ErrNoSecret     = errors.New("session secret is empty")
)

// Claims утверждения токена
type Claims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer now задает часы, nil - time.Now
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// BuildJWTString создаёт токен и возвращает его в виде строки
func (iss *Issuer) BuildJWTString(login string) (string, error) {
	issued := iss.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(iss.ttl)),
		},
		Login: login,
	})

	tokenString, err := token.SignedString(iss.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetLogin проверяет подпись и срок, возвращает логин
func (iss *Issuer) GetLogin(tokenString string) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// срок проверяем сами по внедренным часам
	parser.SkipClaimsValidation = true

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return iss.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !iss.now().Before(claims.ExpiresAt.Time) {
		return "", ErrInvalidToken
	}
	return claims.Login, nil
}
