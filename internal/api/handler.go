package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"accessory-inventory-backend/internal/recon"
	"accessory-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	engine  *recon.Engine
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *recon.Engine, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		engine:  engine,
		webpush: webpushOptions,
	}
}
