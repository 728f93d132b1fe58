package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var allStatuses = []OrderStatus{
	OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderFailed, OrderCancelled,
}

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCompleted, true},
		{OrderPending, OrderFailed, true},
		{OrderPending, OrderCancelled, true},
		{OrderProcessing, OrderCompleted, true},
		{OrderProcessing, OrderPending, false},
		{OrderCompleted, OrderShipped, true},
		{OrderShipped, OrderCompleted, true},
		{OrderCompleted, OrderProcessing, false},
		{OrderFailed, OrderProcessing, false},
		{OrderFailed, OrderCompleted, false},
		{OrderCancelled, OrderPending, false},
		{OrderPending, OrderPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

// Любая последовательность разрешённых переходов после completed, failed
// или cancelled не возвращает заказ в pending или processing.
func TestOrderStatus_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := OrderPending
		reachedTerminal := false
		steps := rapid.SliceOfN(rapid.SampledFrom(allStatuses), 0, 20).Draw(t, "steps")
		for _, next := range steps {
			if !status.CanTransition(next) {
				continue
			}
			status = next
			if status == OrderCompleted || status == OrderFailed || status == OrderCancelled {
				reachedTerminal = true
			}
			if reachedTerminal && (status == OrderPending || status == OrderProcessing) {
				t.Fatalf("status regressed to %s", status)
			}
		}
	})
}

func TestSourcesFor(t *testing.T) {
	assert.Empty(t, SourcesFor(OrderPending))
	assert.ElementsMatch(t, []OrderStatus{OrderPending}, SourcesFor(OrderCancelled))
	assert.ElementsMatch(t, []OrderStatus{OrderPending, OrderProcessing, OrderShipped}, SourcesFor(OrderCompleted))
	assert.ElementsMatch(t, []OrderStatus{OrderPending, OrderProcessing}, SourcesFor(OrderFailed))
}

func TestOrder_LinesTotal(t *testing.T) {
	o := Order{Lines: []OrderLine{
		{ProductID: "a", Quantity: 2, PriceAtPurchase: 500},
		{ProductID: "b", Quantity: 1, PriceAtPurchase: 1500},
	}}
	total, err := o.LinesTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(2500), total)
}

func TestOrder_LinesTotalRejectsOverflow(t *testing.T) {
	tests := []struct {
		name  string
		lines []OrderLine
	}{
		{
			name:  "quantity above limit",
			lines: []OrderLine{{ProductID: "a", Quantity: MaxLineQuantity + 1, PriceAtPurchase: 500}},
		},
		{
			name:  "line total overflows",
			lines: []OrderLine{{ProductID: "a", Quantity: 2, PriceAtPurchase: math.MaxInt64/2 + 1}},
		},
		{
			name: "order total overflows",
			lines: []OrderLine{
				{ProductID: "a", Quantity: 1, PriceAtPurchase: math.MaxInt64},
				{ProductID: "b", Quantity: 1, PriceAtPurchase: 1},
			},
		},
		{
			name:  "zero quantity",
			lines: []OrderLine{{ProductID: "a", Quantity: 0, PriceAtPurchase: 500}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Lines: tt.lines}
			_, err := o.LinesTotal()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLineAmount(t *testing.T) {
	amount, ok := LineAmount(500, 3)
	assert.True(t, ok)
	assert.Equal(t, int64(1500), amount)

	_, ok = LineAmount(500, 1<<61)
	assert.False(t, ok)

	_, ok = LineAmount(-1, 1)
	assert.False(t, ok)

	_, ok = AddAmount(math.MaxInt64, 1)
	assert.False(t, ok)
}
