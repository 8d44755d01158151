package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListSKUs handles GET /api/skus: distinct stocked SKUs for the intake
// autocomplete.
func (h *Handler) ListSKUs(c *gin.Context) {
	skus, err := h.store.DistinctSKUs(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve skus"})
		return
	}
	c.JSON(http.StatusOK, skus)
}

// SKUStats handles GET /api/sku-stats: unit counts grouped by base SKU.
func (h *Handler) SKUStats(c *gin.Context) {
	stats, err := h.store.SKUStats(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute sku stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SKUDetail handles GET /api/sku/:sku: every stocked unit of the base
// SKU and its variants, with the distinct locations holding them.
func (h *Handler) SKUDetail(c *gin.Context) {
	sku := c.Param("sku")

	accs, err := h.store.AccessoriesBySKU(c.Request.Context(), sku)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve accessories"})
		return
	}

	seen := make(map[string]bool)
	locations := make([]string, 0)
	for _, a := range accs {
		if !seen[a.Location] {
			seen[a.Location] = true
			locations = append(locations, a.Location)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"base_sku":    sku,
		"accessories": accs,
		"locations":   locations,
		"total_count": len(accs),
	})
}
