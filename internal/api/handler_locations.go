package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListLocations handles GET /api/locations, most used first.
func (h *Handler) ListLocations(c *gin.Context) {
	locs, err := h.store.ListLocations(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve locations"})
		return
	}
	c.JSON(http.StatusOK, locs)
}

type createLocationRequest struct {
	Name string `json:"name"`
}

// CreateLocation handles POST /api/locations.
func (h *Handler) CreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Location name is required"})
		return
	}

	if err := h.store.CreateLocation(c.Request.Context(), name); err != nil {
		// The name carries a unique index; a second insert fails on it.
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Location already exists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Location added successfully"})
}

// DeleteLocation handles DELETE /api/locations/:id.
func (h *Handler) DeleteLocation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return
	}

	if err := h.store.DeleteLocation(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Location deleted successfully"})
}
