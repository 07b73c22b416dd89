package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderID(t *testing.T) {
	assert.Equal(t, "ORDER-123", FormatOrderID("123"))
	assert.Equal(t, "ORDER-123", FormatOrderID("ORDER-123"))
	assert.Equal(t, "ORDER-123", FormatOrderID(FormatOrderID("123")))
}

func TestLocalOrderID(t *testing.T) {
	assert.Equal(t, "123", LocalOrderID("ORDER-123"))
	assert.Equal(t, "123", LocalOrderID("123"))
}

func TestIsSuccessful(t *testing.T) {
	cases := []struct {
		ts   TransactionStatus
		fs   FraudStatus
		want bool
	}{
		{StatusCapture, FraudAccept, true},
		{StatusSettlement, FraudAccept, true},
		{StatusSettlement, "", true},
		{StatusCapture, FraudChallenge, false},
		{StatusCapture, FraudDeny, false},
		{StatusPending, "", false},
		{StatusExpire, FraudAccept, false},
		{StatusNotFound, "", false},
	}

	for _, tc := range cases {
		t.Run(string(tc.ts)+"/"+string(tc.fs), func(t *testing.T) {
			assert.Equal(t, tc.want, IsSuccessful(tc.ts, tc.fs))
		})
	}
}

func TestIsFailed(t *testing.T) {
	assert.True(t, IsFailed(StatusCancel))
	assert.True(t, IsFailed(StatusDeny))
	assert.True(t, IsFailed(StatusExpire))
	assert.False(t, IsFailed(StatusRefund))
	assert.False(t, IsFailed(StatusPending))
	assert.False(t, IsFailed(StatusSettlement))
}
