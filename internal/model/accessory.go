package model

import "time"

// Accessory represents one physical stocked unit at one location.
// The SKU may carry a "*N" suffix when several units of the same base
// SKU are stocked at the same location.
type Accessory struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	SKU       string    `gorm:"column:sku;size:128;not null;index" json:"sku"`
	Location  string    `gorm:"size:128;not null" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // refreshed on relocation

	// Associations
	Remarks []Remark `gorm:"foreignKey:AccessoryID;constraint:OnDelete:CASCADE" json:"-"`
}
