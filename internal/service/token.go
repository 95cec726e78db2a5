package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
)

// TokenManager проверяет access токены, выпущенные сервисом авторизации маркетплейса,
// и умеет выпускать такие же токены для локальной разработки и тестов.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// GenerateAccess выпускает access токен для актора.
func (m *TokenManager) GenerateAccess(actor valueobject.Actor) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.accessTTL)

	claims := jwt.MapClaims{
		"sub":  actor.ID.String(),
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccess извлекает актора из access токена.
func (m *TokenManager) ParseAccess(token string) (valueobject.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return valueobject.Actor{}, err
	}
	if !parsed.Valid {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return valueobject.Actor{}, err
	}
	if userID == uuid.Nil {
		return valueobject.Actor{}, errors.New("пустой идентификатор пользователя")
	}

	rawRole, _ := claims["role"].(string)
	role, err := valueobject.NewRole(rawRole)
	if err != nil {
		return valueobject.Actor{}, err
	}

	return valueobject.Actor{ID: userID, Role: role}, nil
}
