package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessory-inventory-backend/internal/match"
	"accessory-inventory-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint       string   `json:"endpoint" binding:"required"`
	P256DH         string   `json:"p256dh" binding:"required"`
	Auth           string   `json:"auth" binding:"required"`
	SubscribedSKUs []string `json:"subscribed_skus"`
}

// PutSubscription handles the creation or replacement of a restock push
// subscription and the set of base SKUs it watches.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		// Replace the watched SKU set wholesale.
		if err := tx.Where("endpoint = ?", req.Endpoint).Delete(&model.SKUSubscription{}).Error; err != nil {
			return err
		}
		for _, sku := range req.SubscribedSKUs {
			sku = match.BaseSKU(strings.TrimSpace(sku))
			if sku == "" {
				continue
			}
			mapping := model.SKUSubscription{Endpoint: req.Endpoint, SKU: sku}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mapping).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", req.Endpoint).Delete(&model.SKUSubscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: req.Endpoint}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true // endpoint URLs stay un-decoded on purpose
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	if err := h.store.DB().Preload("SKUs").First(&subscription, "endpoint = ?", raw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	skus := make([]string, len(subscription.SKUs))
	for i, s := range subscription.SKUs {
		skus[i] = s.SKU
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_skus": skus})
}
