package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"accessory-inventory-backend/internal/match"
)

// ListAccessories handles GET /api/accessories with pagination.
func (h *Handler) ListAccessories(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "7"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 7
	}

	rows, total, err := h.store.ListAccessories(c.Request.Context(), page, perPage)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve accessories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessories": rows,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": (total + int64(perPage) - 1) / int64(perPage),
	})
}

type createAccessoryRequest struct {
	SKU      string `json:"sku"`
	Location string `json:"location"`
	Remark   string `json:"remark"`
}

// CreateAccessory handles POST /api/accessories: intake of one stocked
// unit, followed by a re-match of work orders waiting for this SKU.
func (h *Handler) CreateAccessory(c *gin.Context) {
	var req createAccessoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	sku := strings.TrimSpace(req.SKU)
	location := strings.TrimSpace(req.Location)
	if sku == "" || location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "SKU and Location are required"})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.store.CreateAccessory(ctx, sku, location, strings.TrimSpace(req.Remark))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Waiting orders re-match against the original SKU, not the
	// possibly uniquified one.
	if err := h.engine.RematchAfterIntake(ctx, sku); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	message := "Added successfully"
	if acc.SKU != sku {
		message = fmt.Sprintf("Added successfully (SKU: %s)", acc.SKU)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "id": acc.ID})
}

// GetAccessory handles GET /api/accessories/:id.
func (h *Handler) GetAccessory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid accessory ID"})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.store.GetAccessory(ctx, id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Accessory not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve accessory"})
		return
	}

	remarks, err := h.store.RemarksFor(ctx, id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve remarks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessory": acc, "remarks": remarks})
}

type updateAccessoryRequest struct {
	Location  string `json:"location"`
	NewRemark string `json:"new_remark"`
}

// UpdateAccessory handles PUT /api/accessories/:id: relocation and/or
// an appended remark. Orders bound to the unit's old spot are
// re-matched afterwards so their location follows the unit.
func (h *Handler) UpdateAccessory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid accessory ID"})
		return
	}

	var req updateAccessoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.store.GetAccessory(ctx, id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Accessory not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	oldLocation := acc.Location

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = oldLocation
	}
	if err := h.store.UpdateAccessory(ctx, id, location, strings.TrimSpace(req.NewRemark)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.engine.RematchAfterInventoryChange(ctx, match.BaseSKU(acc.SKU), oldLocation); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Updated successfully"})
}

// DeleteAccessory handles DELETE /api/accessories/:id. Remarks cascade;
// orders bound to the vacated spot are re-matched.
func (h *Handler) DeleteAccessory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid accessory ID"})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.store.GetAccessory(ctx, id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Accessory not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.store.DeleteAccessory(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.engine.RematchAfterInventoryChange(ctx, match.BaseSKU(acc.SKU), acc.Location); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted successfully"})
}

// DeleteRemark handles DELETE /api/remarks/:id, the manual correction
// path for a wrongly entered remark.
func (h *Handler) DeleteRemark(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid remark ID"})
		return
	}

	if err := h.store.DeleteRemark(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted successfully"})
}
