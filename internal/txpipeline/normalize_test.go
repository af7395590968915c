package txpipeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

func TestResolveType_Precedence(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawTransaction
		want string
	}{
		{"transactionType first", domain.RawTransaction{TransactionType: "deposit", TransactionTypeSnake: "refund", Type: "payment"}, "deposit"},
		{"snake case second", domain.RawTransaction{TransactionTypeSnake: "refund", Type: "payment"}, "refund"},
		{"generic type third", domain.RawTransaction{Type: "payment", AdditionalInfo: map[string]any{"payment_type": "qr"}}, "payment"},
		{"payment sub-type last", domain.RawTransaction{AdditionalInfo: map[string]any{"payment_type": "qr"}}, "qr"},
		{"blank values skipped", domain.RawTransaction{TransactionType: "  ", Type: "transfer"}, "transfer"},
		{"nothing set", domain.RawTransaction{}, domain.TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, txpipeline.ResolveType(tt.raw))
		})
	}
}

func TestNormalize_MixedShapes(t *testing.T) {
	payload := `[
		{"id": 7, "date": "2024-03-05T10:00:00Z", "amount": 12.5, "currency": "usd", "status": "completed", "transactionType": "deposit", "userId": "u1"},
		{"transactionId": "TX-9", "createdAt": "2024-03-06 08:30:00", "amount": "3.10", "transaction_type": "refund",
		 "additionalInfo": {"merchant": "Shop", "user_type": "business", "payment_type": 4}},
		{"transactionId": "TX-10", "date": "garbage"}
	]`
	var raws []domain.RawTransaction
	require.NoError(t, json.Unmarshal([]byte(payload), &raws))

	txs := txpipeline.NormalizeAll(raws)
	require.Len(t, txs, 3)

	assert.Equal(t, int64(7), txs[0].ID)
	assert.Equal(t, "deposit", txs[0].Type)
	assert.Equal(t, "12.5", txs[0].Amount.String())
	assert.Equal(t, "u1", txs[0].CustomerID)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), txs[0].Date.UTC())

	assert.Equal(t, "refund", txs[1].Type)
	assert.Equal(t, "3.1", txs[1].Amount.String())
	assert.Equal(t, "Shop", txs[1].Merchant)
	assert.Equal(t, "business", txs[1].UserType)
	assert.Equal(t, "4", txs[1].PaymentType)
	assert.Equal(t, time.Date(2024, 3, 6, 8, 30, 0, 0, time.UTC), txs[1].Date)

	assert.False(t, txs[2].HasDate())
	assert.True(t, txs[2].Amount.IsZero())
	assert.Equal(t, domain.TypeUnknown, txs[2].Type)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"2024-01-02T03:04:05.123456Z",
		"2024-01-02T03:04:05-03:00",
		"2024-01-02T03:04:05",
		"2024-01-02 03:04:05",
		"2024-01-02",
	} {
		_, ok := txpipeline.ParseDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", "  ", "02/01/2024", "yesterday"} {
		_, ok := txpipeline.ParseDate(s)
		assert.False(t, ok, s)
	}
}
