package models

import (
	"fmt"
	"time"
)

// Role defines allowed roles in the marketplace
type Role string

const (
	RoleClient   Role = "client"
	RoleMerchant Role = "merchant"
	RoleCourier  Role = "courier"
	RoleAdmin    Role = "admin"
)

// roleAliases maps legacy role spellings still present in old tokens and
// client payloads onto the closed enum.
var roleAliases = map[string]Role{
	"client":     RoleClient,
	"cliente":    RoleClient,
	"merchant":   RoleMerchant,
	"comercio":   RoleMerchant,
	"courier":    RoleCourier,
	"repartidor": RoleCourier,
	"admin":      RoleAdmin,
	"ceo":        RoleAdmin,
}

// NormalizeRole resolves a raw role string to the closed enum. Unknown
// values are rejected rather than passed through to the access policy.
func NormalizeRole(raw string) (Role, error) {
	if r, ok := roleAliases[raw]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleMerchant, RoleCourier, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"not null;default:'client'"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
