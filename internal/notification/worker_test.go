package notification

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"accessory-inventory-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// expectOrderQuery arms the mock for the work order lookup the worker
// does first.
func expectOrderQuery(mock sqlmock.Sqlmock, orderID int64, sku, code, location string) {
	mock.ExpectQuery(`SELECT \* FROM "work_orders" WHERE "work_orders"\."id" = \$1 ORDER BY "work_orders"\."id" LIMIT \$[0-9]+`).
		WithArgs(orderID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku", "accessory_code", "quantity", "status", "match_status", "location"}).
			AddRow(orderID, sku, code, 1, "pending", "matched", location))
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Dispatch a job
	wp.Dispatch(100042)

	// Check if the job is in the channel
	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(100042), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	// --- Test Case: One subscription found, notification sent ---
	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		orderID := int64(100042)
		subscription := model.PushSubscription{
			Endpoint: "https://example.com/push",
			P256DH:   "test_p256dh",
			Auth:     "test_auth",
		}

		// Set up the mock sender
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Work order #100042: IRON (P1) is now available at A-01", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       ioutil.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		// Mock database queries
		expectOrderQuery(mock, orderID, "IRON", "P1", "A-01")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_sku_mapping.*WHERE .*ssm\.sku = \$1`).
			WithArgs("IRON").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, time.Now()))

		wp.Dispatch(orderID)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// --- Test Case: Subscription expired, should be deleted ---
	t.Run("deletes expired subscription", func(t *testing.T) {
		orderID := int64(100043)
		subscription := model.PushSubscription{
			Endpoint: "https://example.com/expired",
			P256DH:   "test_p256dh_expired",
			Auth:     "test_auth_expired",
		}

		// Set up the mock sender to return a 410 Gone status
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				// This will be called, but we wait on the DB operation
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       ioutil.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectOrderQuery(mock, orderID, "IRON", "P2", "A-01")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_sku_mapping.*WHERE .*ssm\.sku = \$1`).
			WithArgs("IRON").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, time.Now()))

		// Expect the delete operation
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"\."endpoint" = \$1`).
			WithArgs(subscription.Endpoint).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(orderID)

		// A short sleep to allow the worker to process the job
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// --- Test Case: Variant SKU, subscriptions matched by base SKU ---
	t.Run("notifies base SKU subscribers for variant stock", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		orderID := int64(100044)
		subscription := model.PushSubscription{
			Endpoint: "https://example.com/variant",
			P256DH:   "test_p256dh_variant",
			Auth:     "test_auth_variant",
		}

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/variant", sub.Endpoint)
				assert.Equal(t, "Work order #100044: IRON*2 (P1) is now available at B-07", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       ioutil.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectOrderQuery(mock, orderID, "IRON*2", "P1", "B-07")
		// Subscribers register the base SKU, never the "*N" variant.
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_sku_mapping.*WHERE .*ssm\.sku = \$1`).
			WithArgs("IRON").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, time.Now()))

		wp.Dispatch(orderID)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
