// Команда devtoken выпускает access токен для локальной разработки:
//
//	go run ./cmd/devtoken -role moderator
//	go run ./cmd/devtoken -user 7b0c... -role seller -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/config"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/service"
)

func main() {
	userFlag := flag.String("user", "", "ID пользователя (по умолчанию случайный)")
	roleFlag := flag.String("role", "seller", "роль: user, seller, moderator, admin, system")
	ttlFlag := flag.Duration("ttl", 0, "время жизни токена (по умолчанию ACCESS_TOKEN_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if cfg.Env == "production" {
		fail(fmt.Errorf("devtoken недоступен в production"))
	}

	userID := uuid.New()
	if *userFlag != "" {
		if userID, err = uuid.Parse(*userFlag); err != nil {
			fail(fmt.Errorf("некорректный -user: %w", err))
		}
	}

	role, err := valueobject.NewRole(*roleFlag)
	if err != nil {
		fail(err)
	}

	ttl := cfg.AccessTokenTTL
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, ttl)
	token, expiresAt, err := tokens.GenerateAccess(valueobject.Actor{ID: userID, Role: role})
	if err != nil {
		fail(err)
	}

	fmt.Printf("user:    %s\nrole:    %s\nexpires: %s\n\n%s\n", userID, role, expiresAt.Format(time.RFC3339), token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "devtoken:", err)
	os.Exit(1)
}
