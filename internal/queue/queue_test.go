package queue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	placed := []byte(`{"order_id":"o-1","user_email":"ana@farm.test","product_name":"Maize seed","quantity":2,"total_price":"25","placed_at":"2025-03-01T10:00:00Z"}`)
	changed := []byte(`{"order_id":"o-1","user_id":"u-1","status":"approved","changed_by":"admin-1","changed_at":"2025-03-01T11:00:00Z"}`)

	require.NoError(t, HandleMessage(dir, OrderPlacedQueue, placed))
	require.NoError(t, HandleMessage(dir, OrderStatusChangedQueue, changed))

	got, err := os.ReadFile(filepath.Join(dir, OrderLogFile))
	require.NoError(t, err)
	assert.Equal(t,
		"[2025-03-01T10:00:00Z] Order placed | order_id=o-1 | user=ana@farm.test | product=\"Maize seed\" | qty=2 | total=25\n"+
			"[2025-03-01T11:00:00Z] Order status changed | order_id=o-1 | user_id=u-1 | status=approved | by=admin-1\n",
		string(got))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, HandleMessage(dir, OrderPlacedQueue, []byte("{not json")))
	assert.Error(t, HandleMessage(dir, "booking.confirmed", []byte("{}")))

	_, err := os.Stat(filepath.Join(dir, OrderLogFile))
	assert.True(t, os.IsNotExist(err))
}

func TestDisabledPublisherDropsEvents(t *testing.T) {
	var nilPub *Publisher
	assert.False(t, nilPub.Enabled())
	assert.NoError(t, nilPub.OrderPlaced(context.Background(), OrderPlacedEvent{OrderID: "o-1"}))

	p := NewPublisher("")
	assert.False(t, p.Enabled())
	assert.NoError(t, p.OrderStatusChanged(context.Background(), OrderStatusChangedEvent{OrderID: "o-1"}))
}
