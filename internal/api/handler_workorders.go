package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"accessory-inventory-backend/internal/model"
)

// ListWorkOrders handles GET /api/work-orders. Every listing first runs
// a bulk refresh so the returned match snapshot reflects the current
// inventory state.
func (h *Handler) ListWorkOrders(c *gin.Context) {
	statusParam := c.DefaultQuery("status", "all")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	var status model.OrderStatus
	if statusParam != "all" {
		status = model.OrderStatus(statusParam)
		if !status.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.engine.RefreshAllPending(ctx); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh work orders"})
		return
	}

	orders, total, err := h.store.ListWorkOrders(ctx, status, page, perPage)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve work orders"})
		return
	}

	counts, err := h.store.OrderCounts(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to count work orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_orders": orders,
		"counts":      counts,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": (total + int64(perPage) - 1) / int64(perPage),
		},
	})
}

type createWorkOrderRequest struct {
	SKU                 string `json:"sku"`
	AccessoryCode       string `json:"accessory_code"`
	Quantity            int    `json:"quantity"`
	CustomerServiceName string `json:"customer_service_name"`
	Remark              string `json:"remark"`
}

// CreateWorkOrder handles POST /api/work-orders with automatic
// inventory matching.
func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var req createWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	sku := strings.TrimSpace(req.SKU)
	code := strings.TrimSpace(req.AccessoryCode)
	if sku == "" || code == "" || req.Quantity == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "SKU, accessory code, and quantity are required"})
		return
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Quantity must be greater than 0"})
		return
	}

	order := &model.WorkOrder{
		SKU:                 sku,
		AccessoryCode:       code,
		Quantity:            req.Quantity,
		CustomerServiceName: strings.TrimSpace(req.CustomerServiceName),
		Remark:              strings.TrimSpace(req.Remark),
	}
	if err := h.engine.CreateWorkOrder(c.Request.Context(), order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	resp := gin.H{
		"success":      true,
		"message":      "Work order created successfully",
		"id":           order.ID,
		"match_status": order.MatchStatus,
	}
	if order.Location != nil {
		resp["location"] = *order.Location
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorkOrder handles GET /api/work-orders/:id. A pending order is
// re-matched first, so the read is a freshness guarantee; matched
// orders carry the bound accessory and its remark history.
func (h *Handler) GetWorkOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid work order ID"})
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.RefreshOrder(ctx, id); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh work order"})
		return
	}

	order, err := h.store.GetWorkOrder(ctx, id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Work order not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve work order"})
		return
	}

	resp := gin.H{"work_order": order}
	if order.MatchStatus == model.MatchMatched && order.Location != nil {
		acc, err := h.store.FindAccessoryAt(ctx, order.SKU, *order.Location)
		if err == nil && acc != nil {
			remarks, _ := h.store.RemarksFor(ctx, acc.ID)
			resp["accessory_details"] = acc
			resp["accessory_remarks"] = remarks
		}
	}
	c.JSON(http.StatusOK, resp)
}

type updateWorkOrderRequest struct {
	Status string `json:"status"`
}

// UpdateWorkOrder handles PUT /api/work-orders/:id, driving the status
// state machine. Completing a matched order writes the removal fact
// back into inventory and re-matches sibling orders.
func (h *Handler) UpdateWorkOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid work order ID"})
		return
	}

	var req updateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	status := model.OrderStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status"})
		return
	}

	ctx := c.Request.Context()
	if status == model.OrderCompleted {
		err = h.engine.CompleteOrder(ctx, id)
	} else {
		err = h.engine.ReopenOrder(ctx, id, status)
	}
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Work order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work order updated successfully"})
}

// DeleteWorkOrder handles DELETE /api/work-orders/:id. Deletion is
// unconditional and has no re-matching side effect.
func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid work order ID"})
		return
	}

	if err := h.store.DeleteWorkOrder(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work order deleted successfully"})
}
