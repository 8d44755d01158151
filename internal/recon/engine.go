package recon

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"accessory-inventory-backend/internal/match"
	"accessory-inventory-backend/internal/model"
	"accessory-inventory-backend/internal/store"
)

// Notifier receives the IDs of work orders that were just promoted from
// new_one to matched. Implemented by the notification worker pool.
type Notifier interface {
	Dispatch(orderID int64)
}

// Engine keeps the match_status/location of pending work orders
// consistent with the current inventory and remark state. The stored
// binding is a best-effort snapshot: it can go stale between writes and
// is corrected lazily on the next listing or read.
type Engine struct {
	store  store.Store
	disq   match.Disqualifier
	notify Notifier // optional
}

// NewEngine creates a reconciliation engine over the given store.
func NewEngine(s store.Store, disq match.Disqualifier) *Engine {
	if disq == nil {
		disq = match.RemovePattern
	}
	return &Engine{store: s, disq: disq}
}

// SetNotifier wires the restock notification sink. Safe to leave unset.
func (e *Engine) SetNotifier(n Notifier) {
	e.notify = n
}

// FindAvailableAccessory returns the best available stocked unit for a
// SKU/part request, or nil when none qualifies. Candidates are the base
// SKU and its "*N" variants, most recently touched first; the first one
// whose remark history does not disqualify the part code wins.
func (e *Engine) FindAvailableAccessory(ctx context.Context, sku, accessoryCode string) (*model.Accessory, error) {
	candidates, err := e.store.AccessoriesBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		remarks, err := e.store.RemarksFor(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(remarks))
		for j, r := range remarks {
			texts[j] = r.Content
		}
		if !e.disq(texts, accessoryCode) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// CreateWorkOrder resolves the initial match and persists the order
// under a fresh random 6-digit ID.
func (e *Engine) CreateWorkOrder(ctx context.Context, order *model.WorkOrder) error {
	acc, err := e.FindAvailableAccessory(ctx, order.SKU, order.AccessoryCode)
	if err != nil {
		return err
	}

	order.Status = model.OrderPending
	if acc != nil {
		order.MatchStatus = model.MatchMatched
		loc := acc.Location
		order.Location = &loc
	} else {
		order.MatchStatus = model.MatchNewOne
		order.Location = nil
	}
	return e.store.CreateWorkOrder(ctx, order)
}

// RefreshAllPending re-resolves every pending work order. Called before
// listings so the returned snapshot is fresh. Idempotent: with no
// inventory change, a second run writes nothing. Per-order failures are
// logged and do not stop the pass.
func (e *Engine) RefreshAllPending(ctx context.Context) error {
	orders, err := e.store.PendingOrders(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		if err := e.reresolve(ctx, &orders[i]); err != nil {
			log.Printf("refresh: work order %d not updated: %v", orders[i].ID, err)
		}
	}
	return nil
}

// RefreshOrder re-resolves a single order before it is read. Orders that
// are completed or cancelled keep whatever binding they froze with.
func (e *Engine) RefreshOrder(ctx context.Context, id int64) error {
	order, err := e.store.GetWorkOrder(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if order.Status != model.OrderPending {
		return nil
	}
	return e.reresolve(ctx, order)
}

// RematchAfterIntake promotes waiting new_one orders after a unit of the
// given SKU arrives. The sku is the original requested string, before
// any "*N" uniquification.
func (e *Engine) RematchAfterIntake(ctx context.Context, sku string) error {
	orders, err := e.store.PendingNewOneBySKU(ctx, sku)
	if err != nil {
		return err
	}
	for i := range orders {
		acc, err := e.FindAvailableAccessory(ctx, orders[i].SKU, orders[i].AccessoryCode)
		if err != nil {
			log.Printf("intake rematch: work order %d not resolved: %v", orders[i].ID, err)
			continue
		}
		if acc == nil {
			continue
		}
		if err := e.bind(ctx, &orders[i], acc.Location); err != nil {
			log.Printf("intake rematch: work order %d not updated: %v", orders[i].ID, err)
		}
	}
	return nil
}

// RematchAfterRelease re-resolves the sibling orders that were bound to
// the exact (sku, accessory_code, location) triple a completed order
// just consumed.
func (e *Engine) RematchAfterRelease(ctx context.Context, sku, accessoryCode, location string) error {
	orders, err := e.store.PendingMatchedTo(ctx, sku, accessoryCode, location)
	if err != nil {
		return err
	}
	for i := range orders {
		if err := e.reresolve(ctx, &orders[i]); err != nil {
			log.Printf("release rematch: work order %d not updated: %v", orders[i].ID, err)
		}
	}
	return nil
}

// RematchAfterInventoryChange re-resolves orders bound to a unit that
// was deleted or relocated. Only the unit's base SKU and old location
// are known; each affected order re-resolves with its own part code.
func (e *Engine) RematchAfterInventoryChange(ctx context.Context, baseSKU, oldLocation string) error {
	orders, err := e.store.PendingMatchedAt(ctx, baseSKU, oldLocation)
	if err != nil {
		return err
	}
	for i := range orders {
		if err := e.reresolve(ctx, &orders[i]); err != nil {
			log.Printf("inventory rematch: work order %d not updated: %v", orders[i].ID, err)
		}
	}
	return nil
}

// CompleteOrder drives the pending -> completed transition. When the
// order is matched, the consumed part is written back into the bound
// accessory's remark history as a removal fact, preventing the same
// physical unit from being allocated twice for that part, and the
// vacated binding's siblings are re-matched.
func (e *Engine) CompleteOrder(ctx context.Context, id int64) error {
	order, err := e.store.GetWorkOrder(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := e.store.SetOrderStatus(ctx, order.ID, model.OrderCompleted, &now); err != nil {
		return err
	}

	if order.MatchStatus != model.MatchMatched || order.Location == nil {
		return nil
	}

	acc, err := e.store.FindAccessoryAt(ctx, order.SKU, *order.Location)
	if err != nil {
		return err
	}
	if acc != nil {
		fact := fmt.Sprintf("remove %s - WO#%d - %s", order.AccessoryCode, order.ID, now.Format("2006-01-02 15:04:05"))
		if err := e.store.AddRemark(ctx, acc.ID, fact); err != nil {
			return err
		}
	}

	return e.RematchAfterRelease(ctx, order.SKU, order.AccessoryCode, *order.Location)
}

// ReopenOrder moves an order back to pending or cancelled. completed_at
// is cleared either way; a frozen binding stays as it was.
func (e *Engine) ReopenOrder(ctx context.Context, id int64, status model.OrderStatus) error {
	if _, err := e.store.GetWorkOrder(ctx, id); err != nil {
		return err
	}
	return e.store.SetOrderStatus(ctx, id, status, nil)
}

// reresolve applies a fresh resolution to one pending order, writing
// only when the outcome differs from the stored snapshot.
func (e *Engine) reresolve(ctx context.Context, order *model.WorkOrder) error {
	acc, err := e.FindAvailableAccessory(ctx, order.SKU, order.AccessoryCode)
	if err != nil {
		return err
	}
	if acc != nil {
		if order.MatchStatus != model.MatchMatched || order.Location == nil || *order.Location != acc.Location {
			return e.bind(ctx, order, acc.Location)
		}
		return nil
	}
	if order.MatchStatus != model.MatchNewOne {
		return e.store.ClearMatch(ctx, order.ID)
	}
	return nil
}

// bind persists a matched binding and reports promotions.
func (e *Engine) bind(ctx context.Context, order *model.WorkOrder, location string) error {
	promoted := order.MatchStatus != model.MatchMatched
	if err := e.store.BindMatch(ctx, order.ID, location); err != nil {
		return err
	}
	if promoted && e.notify != nil {
		e.notify.Dispatch(order.ID)
	}
	return nil
}
