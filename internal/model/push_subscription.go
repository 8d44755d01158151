package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey;size:512"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	SKUs []SKUSubscription `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SKUSubscription maps a push subscription to one base SKU it wants
// restock notifications for.
type SKUSubscription struct {
	Endpoint string `gorm:"primaryKey;size:512" json:"-"`
	SKU      string `gorm:"column:sku;primaryKey;size:128" json:"sku"`
}

// TableName keeps the join-table naming explicit.
func (SKUSubscription) TableName() string { return "subscription_sku_mapping" }
