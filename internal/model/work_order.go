package model

import "time"

// OrderStatus is the lifecycle state of a work order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the recognized order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// MatchStatus describes whether a work order currently has a bound,
// available accessory.
type MatchStatus string

const (
	MatchPending MatchStatus = "pending"
	MatchMatched MatchStatus = "matched"
	MatchNewOne  MatchStatus = "new_one"
)

// WorkOrder is a request to supply a specific part (AccessoryCode) under
// a SKU. Location is non-nil if and only if MatchStatus is matched; the
// binding is re-evaluated only while Status is pending.
type WorkOrder struct {
	ID                  int64       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SKU                 string      `gorm:"column:sku;size:128;not null;index" json:"sku"`
	AccessoryCode       string      `gorm:"size:128;not null" json:"accessory_code"`
	Quantity            int         `gorm:"not null" json:"quantity"`
	Status              OrderStatus `gorm:"size:16;not null;default:pending" json:"status"`
	MatchStatus         MatchStatus `gorm:"size:16;not null;default:pending" json:"match_status"`
	Location            *string     `gorm:"size:128" json:"location"`
	CustomerServiceName string      `gorm:"size:128" json:"customer_service_name"`
	Remark              string      `json:"remark"`
	CreatedAt           time.Time   `json:"created_at"`
	CompletedAt         *time.Time  `json:"completed_at"`
}
