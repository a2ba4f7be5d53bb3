package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusPreparing},
		{StatusConfirmed, StatusCancelled},
		{StatusPreparing, StatusOutForDelivery},
		{StatusOutForDelivery, StatusDelivered},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusDelivered},
		{StatusPending, StatusOutForDelivery},
		{StatusPreparing, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusConfirmed, StatusConfirmed},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("out_for_delivery")
	assert.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, status)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)

	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestComputeCharges(t *testing.T) {
	charges := ComputeCharges(100)

	assert.Equal(t, 100.0, charges.Subtotal)
	assert.Equal(t, 5.0, charges.Tax)
	assert.Equal(t, 50.0, charges.DeliveryFee)
	assert.Equal(t, 155.0, charges.TotalAmount)
}

func TestComputeCharges_ZeroSubtotal(t *testing.T) {
	charges := ComputeCharges(0)

	assert.Equal(t, 0.0, charges.Tax)
	assert.Equal(t, DeliveryFee, charges.TotalAmount)
}
