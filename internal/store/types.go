package store

import "time"

// AccessoryRow is a list-view projection of an accessory together with
// its most recent remark.
type AccessoryRow struct {
	ID           int64     `json:"id"`
	SKU          string    `gorm:"column:sku" json:"sku"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LatestRemark *string   `json:"latest_remark"`
}

// SKUStat is the per-base-SKU stocked unit count.
type SKUStat struct {
	SKU   string `gorm:"column:sku" json:"sku"`
	Count int64  `json:"count"`
}

// OrderCounts holds the per-status work order totals shown on listings.
type OrderCounts struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}
