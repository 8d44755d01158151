package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"accessory-inventory-backend/internal/match"
	"accessory-inventory-backend/internal/model"
)

// Store defines the interface for all database operations. The matching
// engine only ever sees this surface; it never touches gorm directly.
type Store interface {
	// Accessories
	CreateAccessory(ctx context.Context, sku, location, remark string) (*model.Accessory, error)
	GetAccessory(ctx context.Context, id int64) (*model.Accessory, error)
	ListAccessories(ctx context.Context, page, perPage int) ([]AccessoryRow, int64, error)
	AccessoriesBySKU(ctx context.Context, sku string) ([]model.Accessory, error)
	FindAccessoryAt(ctx context.Context, sku, location string) (*model.Accessory, error)
	UpdateAccessory(ctx context.Context, id int64, location, newRemark string) error
	DeleteAccessory(ctx context.Context, id int64) error

	// Remarks
	AddRemark(ctx context.Context, accessoryID int64, content string) error
	RemarksFor(ctx context.Context, accessoryID int64) ([]model.Remark, error)
	DeleteRemark(ctx context.Context, id int64) error

	// Locations
	CreateLocation(ctx context.Context, name string) error
	ListLocations(ctx context.Context) ([]model.Location, error)
	DeleteLocation(ctx context.Context, id int64) error

	// SKU views
	DistinctSKUs(ctx context.Context) ([]string, error)
	SKUStats(ctx context.Context) ([]SKUStat, error)

	// Work orders
	CreateWorkOrder(ctx context.Context, order *model.WorkOrder) error
	GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error)
	ListWorkOrders(ctx context.Context, status model.OrderStatus, page, perPage int) ([]model.WorkOrder, int64, error)
	OrderCounts(ctx context.Context) (OrderCounts, error)
	PendingOrders(ctx context.Context) ([]model.WorkOrder, error)
	PendingNewOneBySKU(ctx context.Context, sku string) ([]model.WorkOrder, error)
	PendingMatchedTo(ctx context.Context, sku, accessoryCode, location string) ([]model.WorkOrder, error)
	PendingMatchedAt(ctx context.Context, sku, location string) ([]model.WorkOrder, error)
	BindMatch(ctx context.Context, orderID int64, location string) error
	ClearMatch(ctx context.Context, orderID int64) error
	SetOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, completedAt *time.Time) error
	DeleteWorkOrder(ctx context.Context, id int64) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for collaborators that need raw
// access (subscription handlers, notification workers).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Accessories ---

// CreateAccessory stores a new stocked unit. Duplicate stock of the same
// SKU at the same location gets a "*N" suffix; the location's usage
// counter is bumped and an optional intake remark is recorded, all in
// one transaction.
func (s *gormStore) CreateAccessory(ctx context.Context, sku, location, remark string) (*model.Accessory, error) {
	acc := &model.Accessory{Location: location, UpdatedAt: time.Now()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		finalSKU, err := uniquifySKU(tx, sku, location)
		if err != nil {
			return err
		}
		acc.SKU = finalSKU

		if err := tx.Create(acc).Error; err != nil {
			return fmt.Errorf("failed to create accessory: %w", err)
		}

		if err := tx.Model(&model.Location{}).
			Where("name = ?", location).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to bump location usage: %w", err)
		}

		if remark != "" {
			r := model.Remark{AccessoryID: acc.ID, Content: remark}
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("failed to create intake remark: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// uniquifySKU returns sku unchanged when no unit of it is stocked at the
// location yet, otherwise the next free "sku*N" variant.
func uniquifySKU(tx *gorm.DB, sku, location string) (string, error) {
	var n int64
	if err := tx.Model(&model.Accessory{}).
		Where("sku = ? AND location = ?", sku, location).
		Count(&n).Error; err != nil {
		return "", fmt.Errorf("failed to check for duplicate sku: %w", err)
	}
	if n == 0 {
		return sku, nil
	}

	var existing []string
	if err := tx.Model(&model.Accessory{}).
		Where("(sku = ? OR sku LIKE ?) AND location = ?", sku, sku+"*%", location).
		Pluck("sku", &existing).Error; err != nil {
		return "", fmt.Errorf("failed to list sku variants: %w", err)
	}

	maxNum := 0
	for _, e := range existing {
		if e == sku {
			if maxNum < 1 {
				maxNum = 1
			}
			continue
		}
		if i := strings.LastIndex(e, "*"); i >= 0 {
			if num, err := strconv.Atoi(e[i+1:]); err == nil && num+1 > maxNum {
				maxNum = num + 1
			}
		}
	}
	if maxNum == 0 {
		maxNum = 1
	}
	return fmt.Sprintf("%s*%d", sku, maxNum), nil
}

func (s *gormStore) GetAccessory(ctx context.Context, id int64) (*model.Accessory, error) {
	var acc model.Accessory
	if err := s.db.WithContext(ctx).First(&acc, id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *gormStore) ListAccessories(ctx context.Context, page, perPage int) ([]AccessoryRow, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Accessory{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accessories: %w", err)
	}

	var rows []AccessoryRow
	err := s.db.WithContext(ctx).Model(&model.Accessory{}).
		Select(`accessories.*, (SELECT content FROM remarks WHERE remarks.accessory_id = accessories.id ORDER BY created_at DESC LIMIT 1) AS latest_remark`).
		Order("accessories.updated_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accessories: %w", err)
	}
	return rows, total, nil
}

// AccessoriesBySKU returns all stocked units of the base SKU and its
// "*N" variants, most recently touched first. This ordering is the
// resolver's tie-break between several candidates.
func (s *gormStore) AccessoriesBySKU(ctx context.Context, sku string) ([]model.Accessory, error) {
	var accs []model.Accessory
	err := s.db.WithContext(ctx).
		Where("sku = ? OR sku LIKE ?", sku, sku+"*%").
		Order("updated_at DESC").
		Find(&accs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query accessories for sku %q: %w", sku, err)
	}
	return accs, nil
}

// FindAccessoryAt locates the stocked unit a matched work order is bound
// to. Variants are included so bindings to "sku*N" units resolve too.
func (s *gormStore) FindAccessoryAt(ctx context.Context, sku, location string) (*model.Accessory, error) {
	var acc model.Accessory
	err := s.db.WithContext(ctx).
		Where("(sku = ? OR sku LIKE ?) AND location = ?", sku, sku+"*%", location).
		Order("updated_at DESC").
		First(&acc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up accessory %q at %q: %w", sku, location, err)
	}
	return &acc, nil
}

// UpdateAccessory relocates a unit (refreshing updated_at) and appends
// an optional remark.
func (s *gormStore) UpdateAccessory(ctx context.Context, id int64, location, newRemark string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Accessory{}).Where("id = ?", id).
			Updates(map[string]any{"location": location, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to update accessory %d: %w", id, err)
		}
		if newRemark != "" {
			r := model.Remark{AccessoryID: id, Content: newRemark}
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("failed to append remark to accessory %d: %w", id, err)
			}
		}
		return nil
	})
}

// DeleteAccessory removes a unit and its remark history. The cascade is
// done explicitly so it also holds on engines without FK enforcement.
func (s *gormStore) DeleteAccessory(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("accessory_id = ?", id).Delete(&model.Remark{}).Error; err != nil {
			return fmt.Errorf("failed to delete remarks of accessory %d: %w", id, err)
		}
		if err := tx.Delete(&model.Accessory{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete accessory %d: %w", id, err)
		}
		return nil
	})
}

// --- Remarks ---

func (s *gormStore) AddRemark(ctx context.Context, accessoryID int64, content string) error {
	r := model.Remark{AccessoryID: accessoryID, Content: content}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("failed to add remark to accessory %d: %w", accessoryID, err)
	}
	return nil
}

// RemarksFor returns the full history, newest first.
func (s *gormStore) RemarksFor(ctx context.Context, accessoryID int64) ([]model.Remark, error) {
	var remarks []model.Remark
	err := s.db.WithContext(ctx).
		Where("accessory_id = ?", accessoryID).
		Order("created_at DESC").
		Find(&remarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load remarks for accessory %d: %w", accessoryID, err)
	}
	return remarks, nil
}

func (s *gormStore) DeleteRemark(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.Remark{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete remark %d: %w", id, err)
	}
	return nil
}

// --- Locations ---

func (s *gormStore) CreateLocation(ctx context.Context, name string) error {
	loc := model.Location{Name: name}
	return s.db.WithContext(ctx).Create(&loc).Error
}

func (s *gormStore) ListLocations(ctx context.Context) ([]model.Location, error) {
	var locs []model.Location
	err := s.db.WithContext(ctx).
		Order("usage_count DESC, name ASC").
		Find(&locs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

func (s *gormStore) DeleteLocation(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.Location{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete location %d: %w", id, err)
	}
	return nil
}

// --- SKU views ---

func (s *gormStore) DistinctSKUs(ctx context.Context) ([]string, error) {
	var skus []string
	err := s.db.WithContext(ctx).Model(&model.Accessory{}).
		Distinct("sku").Order("sku").Pluck("sku", &skus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list skus: %w", err)
	}
	return skus, nil
}

// SKUStats groups stocked units by base SKU ("sku*N" counts toward
// "sku"), most stocked first. Grouping happens in Go because the base
// SKU split is string logic, not something worth pushing into SQL.
func (s *gormStore) SKUStats(ctx context.Context) ([]SKUStat, error) {
	var skus []string
	if err := s.db.WithContext(ctx).Model(&model.Accessory{}).Pluck("sku", &skus).Error; err != nil {
		return nil, fmt.Errorf("failed to load skus for stats: %w", err)
	}

	counts := make(map[string]int64)
	order := make([]string, 0)
	for _, sku := range skus {
		base := match.BaseSKU(sku)
		if _, seen := counts[base]; !seen {
			order = append(order, base)
		}
		counts[base]++
	}

	stats := make([]SKUStat, 0, len(order))
	for _, base := range order {
		stats = append(stats, SKUStat{SKU: base, Count: counts[base]})
	}
	// Most stocked first, stable over first-seen order.
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats, nil
}

// --- Work orders ---

// randomOrderID draws a candidate 6-digit work order ID. Swapped out in
// tests to force collisions.
var randomOrderID = func() int64 {
	return int64(100000 + rand.Intn(900000))
}

// CreateWorkOrder assigns a random 6-digit ID, retrying on the rare
// collision, and persists the order.
func (s *gormStore) CreateWorkOrder(ctx context.Context, order *model.WorkOrder) error {
	for {
		id := randomOrderID()
		var n int64
		if err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).
			Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check work order id %d: %w", id, err)
		}
		if n > 0 {
			continue
		}
		order.ID = id
		break
	}

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}
	return nil
}

func (s *gormStore) GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error) {
	var order model.WorkOrder
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListWorkOrders pages through orders, pending first, newest first
// within a status band. An empty status returns everything.
func (s *gormStore) ListWorkOrders(ctx context.Context, status model.OrderStatus, page, perPage int) ([]model.WorkOrder, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.WorkOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count work orders: %w", err)
	}

	var orders []model.WorkOrder
	err := q.
		Order("CASE status WHEN 'pending' THEN 1 WHEN 'completed' THEN 2 WHEN 'cancelled' THEN 3 ELSE 4 END, created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list work orders: %w", err)
	}
	return orders, total, nil
}

func (s *gormStore) OrderCounts(ctx context.Context) (OrderCounts, error) {
	type aggRow struct {
		Status model.OrderStatus
		N      int64
	}
	var aggs []aggRow
	err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&aggs).Error
	if err != nil {
		return OrderCounts{}, fmt.Errorf("failed to aggregate work order counts: %w", err)
	}

	var counts OrderCounts
	for _, a := range aggs {
		switch a.Status {
		case model.OrderPending:
			counts.Pending = a.N
		case model.OrderCompleted:
			counts.Completed = a.N
		case model.OrderCancelled:
			counts.Cancelled = a.N
		}
	}
	return counts, nil
}

func (s *gormStore) PendingOrders(ctx context.Context) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := s.db.WithContext(ctx).
		Where("status = ?", model.OrderPending).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending work orders: %w", err)
	}
	return orders, nil
}

// PendingNewOneBySKU scopes the intake-triggered re-match: the sku here
// is the original requested string, not the uniquified variant.
func (s *gormStore) PendingNewOneBySKU(ctx context.Context, sku string) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := s.db.WithContext(ctx).
		Where("status = ? AND match_status = ? AND sku = ?", model.OrderPending, model.MatchNewOne, sku).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load new_one work orders for sku %q: %w", sku, err)
	}
	return orders, nil
}

// PendingMatchedTo scopes the release-triggered re-match to the exact
// vacated (sku, accessory_code, location) triple.
func (s *gormStore) PendingMatchedTo(ctx context.Context, sku, accessoryCode, location string) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := s.db.WithContext(ctx).
		Where("status = ? AND match_status = ? AND sku = ? AND accessory_code = ? AND location = ?",
			model.OrderPending, model.MatchMatched, sku, accessoryCode, location).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load matched work orders for %q/%q@%q: %w", sku, accessoryCode, location, err)
	}
	return orders, nil
}

// PendingMatchedAt scopes re-matching after an inventory mutation where
// only the unit's (sku, location) is known, not which part codes were
// bound to it.
func (s *gormStore) PendingMatchedAt(ctx context.Context, sku, location string) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := s.db.WithContext(ctx).
		Where("status = ? AND match_status = ? AND sku = ? AND location = ?",
			model.OrderPending, model.MatchMatched, sku, location).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load matched work orders for %q@%q: %w", sku, location, err)
	}
	return orders, nil
}

// BindMatch records a successful resolution. Location is non-NULL iff
// match_status is matched, so both columns move together.
func (s *gormStore) BindMatch(ctx context.Context, orderID int64, location string) error {
	err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).Where("id = ?", orderID).
		Updates(map[string]any{"match_status": model.MatchMatched, "location": location}).Error
	if err != nil {
		return fmt.Errorf("failed to bind work order %d to %q: %w", orderID, location, err)
	}
	return nil
}

// ClearMatch demotes an order to new_one and drops its location.
func (s *gormStore) ClearMatch(ctx context.Context, orderID int64) error {
	err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).Where("id = ?", orderID).
		Updates(map[string]any{"match_status": model.MatchNewOne, "location": nil}).Error
	if err != nil {
		return fmt.Errorf("failed to clear match of work order %d: %w", orderID, err)
	}
	return nil
}

func (s *gormStore) SetOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, completedAt *time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).Where("id = ?", orderID).
		Updates(map[string]any{"status": status, "completed_at": completedAt}).Error
	if err != nil {
		return fmt.Errorf("failed to set work order %d status to %s: %w", orderID, status, err)
	}
	return nil
}

func (s *gormStore) DeleteWorkOrder(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.WorkOrder{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete work order %d: %w", id, err)
	}
	return nil
}
