package valueobject

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleSeller    Role = "seller"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleModerator, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// NewRole разбирает роль из токена. Пустая роль считается обычным пользователем.
func NewRole(role string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	if r == "" {
		return RoleUser, nil
	}
	if !r.IsValid() {
		return "", apperror.Validation("неизвестная роль: " + role)
	}
	return r, nil
}

// Actor - тот, от чьего имени выполняется действие.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsModerator() bool {
	return a.Role == RoleModerator || a.Role == RoleAdmin
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

func (a Actor) String() string {
	return string(a.Role) + ":" + a.ID.String()
}
