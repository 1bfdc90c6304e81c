package models

import "time"

type Merchant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     uint      `json:"owner_id" gorm:"not null"`
	Owner       User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string    `json:"name" gorm:"not null"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	City        string    `json:"city" gorm:"index"`
	Description string    `json:"description"`
	IsOpen      bool      `json:"is_open" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
