package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"accessory-inventory-backend/internal/api"
	"accessory-inventory-backend/internal/model"
	"accessory-inventory-backend/internal/recon"
	"accessory-inventory-backend/internal/store"
)

func setupServer(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(
		&model.Accessory{},
		&model.Remark{},
		&model.Location{},
		&model.WorkOrder{},
		&model.PushSubscription{},
		&model.SKUSubscription{},
	))

	gormStore := store.NewGormStore(testDB)
	engine := recon.NewEngine(gormStore, nil)

	// Generous limits so the test itself never trips the rate limiter.
	return api.NewRouter(gormStore, engine, nil, api.RouterOptions{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
}

// doJSON performs one request against the router and decodes the JSON body.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	}
	return w.Code, decoded
}

// TestWorkOrderLifecycle drives the full flow over the HTTP surface:
// intake, automatic matching, completion with its inventory write-back,
// a waiting order promoted by a restock, and demotion after the stock
// is deleted again.
func TestWorkOrderLifecycle(t *testing.T) {
	router := setupServer(t)

	// --- Setup: one location and one stocked unit ---
	code, resp := doJSON(t, router, "POST", "/api/locations", gin.H{"name": "A-01"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])

	code, resp = doJSON(t, router, "POST", "/api/accessories", gin.H{"sku": "IRON", "location": "A-01"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, resp["success"])
	firstAccessoryID := int64(resp["id"].(float64))

	var firstOrderID int64
	t.Run("order matches stocked unit on creation", func(t *testing.T) {
		code, resp := doJSON(t, router, "POST", "/api/work-orders",
			gin.H{"sku": "IRON", "accessory_code": "P1", "quantity": 1})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, resp["success"])
		assert.Equal(t, "matched", resp["match_status"])
		assert.Equal(t, "A-01", resp["location"])
		firstOrderID = int64(resp["id"].(float64))
	})

	t.Run("completion writes the removal fact back", func(t *testing.T) {
		code, resp := doJSON(t, router, "PUT", fmt.Sprintf("/api/work-orders/%d", firstOrderID),
			gin.H{"status": "completed"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, resp["success"])

		code, resp = doJSON(t, router, "GET", fmt.Sprintf("/api/accessories/%d", firstAccessoryID), nil)
		require.Equal(t, http.StatusOK, code)
		remarks := resp["remarks"].([]any)
		require.Len(t, remarks, 1)
		content := remarks[0].(map[string]any)["content"].(string)
		assert.Contains(t, content, fmt.Sprintf("remove P1 - WO#%d - ", firstOrderID))
	})

	var secondOrderID int64
	t.Run("same part cannot be served twice from one unit", func(t *testing.T) {
		code, resp := doJSON(t, router, "POST", "/api/work-orders",
			gin.H{"sku": "IRON", "accessory_code": "P1", "quantity": 1})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "new_one", resp["match_status"])
		assert.NotContains(t, resp, "location")
		secondOrderID = int64(resp["id"].(float64))
	})

	var secondAccessoryID int64
	t.Run("restock promotes the waiting order", func(t *testing.T) {
		code, resp := doJSON(t, router, "POST", "/api/accessories",
			gin.H{"sku": "IRON", "location": "B-07"})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, resp["success"])
		secondAccessoryID = int64(resp["id"].(float64))

		code, resp = doJSON(t, router, "GET", fmt.Sprintf("/api/work-orders/%d", secondOrderID), nil)
		require.Equal(t, http.StatusOK, code)
		order := resp["work_order"].(map[string]any)
		assert.Equal(t, "matched", order["match_status"])
		assert.Equal(t, "B-07", order["location"])
		assert.Contains(t, resp, "accessory_details")
	})

	t.Run("deleting the stock demotes the order again", func(t *testing.T) {
		code, resp := doJSON(t, router, "DELETE", fmt.Sprintf("/api/accessories/%d", secondAccessoryID), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, resp["success"])

		code, resp = doJSON(t, router, "GET", fmt.Sprintf("/api/work-orders/%d", secondOrderID), nil)
		require.Equal(t, http.StatusOK, code)
		order := resp["work_order"].(map[string]any)
		assert.Equal(t, "new_one", order["match_status"])
		assert.Nil(t, order["location"])
	})

	t.Run("listing refreshes and reports counts", func(t *testing.T) {
		code, resp := doJSON(t, router, "GET", "/api/work-orders", nil)
		require.Equal(t, http.StatusOK, code)
		counts := resp["counts"].(map[string]any)
		assert.Equal(t, float64(1), counts["pending"])
		assert.Equal(t, float64(1), counts["completed"])

		orders := resp["work_orders"].([]any)
		require.Len(t, orders, 2)
		// Pending band sorts ahead of completed.
		assert.Equal(t, "pending", orders[0].(map[string]any)["status"])
		assert.Equal(t, "completed", orders[1].(map[string]any)["status"])
	})

	t.Run("duplicate intake uniquifies the SKU", func(t *testing.T) {
		code, resp := doJSON(t, router, "POST", "/api/accessories",
			gin.H{"sku": "IRON", "location": "A-01"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Added successfully (SKU: IRON*1)", resp["message"])
	})

	t.Run("duplicate location is rejected", func(t *testing.T) {
		code, _ := doJSON(t, router, "POST", "/api/locations", gin.H{"name": "A-01"})
		assert.Equal(t, http.StatusConflict, code)
	})
}
