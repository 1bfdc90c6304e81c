package models

import "time"

// OrderStatus represents all possible states of a marketplace order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusEnRoute   OrderStatus = "en_route"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	ClientID        uint        `json:"client_id" gorm:"not null"`
	Client          User        `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	MerchantID      uint        `json:"merchant_id" gorm:"not null"`
	Merchant        Merchant    `json:"merchant,omitempty" gorm:"foreignKey:MerchantID"`
	CourierID       *uint       `json:"courier_id"`
	Courier         *User       `json:"courier,omitempty" gorm:"foreignKey:CourierID"`
	Status          OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	Total           float64     `json:"total"`
	DeliveryAddress string      `json:"delivery_address" gorm:"not null"`
	City            string      `json:"city"`
	Notes           string      `json:"notes"`
	Items           []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`

	// One timestamp per committed transition
	AcceptedAt  *time.Time `json:"accepted_at"`
	EnRouteAt   *time.Time `json:"en_route_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	// Version guards the read-modify-write cycle; saves check it
	Version   int       `json:"-" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	OrderID  uint    `json:"order_id" gorm:"not null"`
	Name     string  `json:"name" gorm:"not null"` // snapshot name at time of order
	Quantity int     `json:"quantity" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null"` // snapshot price
}

// OrderStatusHistory tracks every status change for the audit trail
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
