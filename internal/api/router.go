package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"accessory-inventory-backend/internal/mw"
	"accessory-inventory-backend/internal/recon"
	"accessory-inventory-backend/internal/store"
)

// RouterOptions tunes the middleware on the API surface.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, engine *recon.Engine, webpushOptions *webpush.Options, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, engine, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)

	// Autocomplete-style data tolerates short staleness; everything
	// that feeds the matching engine is served fresh.
	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/accessories", handler.ListAccessories)
		api.POST("/accessories", handler.CreateAccessory)
		api.GET("/accessories/:id", handler.GetAccessory)
		api.PUT("/accessories/:id", handler.UpdateAccessory)
		api.DELETE("/accessories/:id", handler.DeleteAccessory)
		api.DELETE("/remarks/:id", handler.DeleteRemark)

		api.GET("/locations", handler.ListLocations)
		api.POST("/locations", handler.CreateLocation)
		api.DELETE("/locations/:id", handler.DeleteLocation)

		api.GET("/skus", caching, handler.ListSKUs)
		api.GET("/sku-stats", caching, handler.SKUStats)
		api.GET("/sku/:sku", handler.SKUDetail)

		api.GET("/work-orders", handler.ListWorkOrders)
		api.POST("/work-orders", handler.CreateWorkOrder)
		api.GET("/work-orders/:id", handler.GetWorkOrder)
		api.PUT("/work-orders/:id", handler.UpdateWorkOrder)
		api.DELETE("/work-orders/:id", handler.DeleteWorkOrder)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
