package model

import "time"

// Location is a named storage place. UsageCount is bumped on every
// accessory intake there and drives UI ordering only.
type Location struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}
