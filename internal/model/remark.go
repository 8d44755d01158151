package model

import "time"

// Remark is one entry in an accessory's append-only note history.
// Newest-first is the canonical read order.
type Remark struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	AccessoryID int64     `gorm:"index;not null" json:"accessory_id"`
	Content     string    `gorm:"not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
