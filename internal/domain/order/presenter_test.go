package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentDerivesTotals(t *testing.T) {
	offerID := "off-1"
	o := &Order{
		OrderNo:     "SO-20250901-000042",
		Status:      StatusSubmitted,
		Note:        "dock 4",
		SubmittedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
		Items: []Item{
			{
				ProductID:      "p1",
				ProductName:    "Widget",
				Quantity:       100,
				UnitPrice:      decimal.RequireFromString("10.00"),
				DiscountAmount: decimal.RequireFromString("100.00"),
				LineTotal:      decimal.RequireFromString("900.00"),
				OfferID:        &offerID,
				Bonuses:        []ItemBonus{{ID: "b1", Quantity: 5}},
			},
			{
				ProductID:      "p2",
				ProductName:    "Gadget",
				Quantity:       50,
				UnitPrice:      decimal.RequireFromString("5.50"),
				DiscountAmount: decimal.Zero,
				LineTotal:      decimal.RequireFromString("275.00"),
				Bonuses:        []ItemBonus{},
			},
		},
	}

	d := Present(o)

	assert.Equal(t, "SO-20250901-000042", d.OrderNo)
	assert.Equal(t, StatusSubmitted, d.Status)
	assert.True(t, decimal.RequireFromString("1275.00").Equal(d.Subtotal), "subtotal %s", d.Subtotal)
	assert.True(t, decimal.RequireFromString("100.00").Equal(d.TotalDiscount))
	assert.True(t, decimal.RequireFromString("1175.00").Equal(d.FinalTotal))

	require.Len(t, d.Items, 2)
	require.Len(t, d.Items[0].Bonuses, 1)
	assert.Equal(t, 5, d.Items[0].Bonuses[0].Quantity)
	require.NotNil(t, d.Items[0].OfferID)
	assert.Equal(t, "off-1", *d.Items[0].OfferID)
}

func TestPresentReportsLineValuesVerbatim(t *testing.T) {
	// Stored snapshots are never re-derived, even when inconsistent.
	o := &Order{
		OrderNo: "SO-20250901-000043",
		Status:  StatusSubmitted,
		Items: []Item{{
			ProductID:      "p1",
			Quantity:       2,
			UnitPrice:      decimal.RequireFromString("10.00"),
			DiscountAmount: decimal.Zero,
			LineTotal:      decimal.RequireFromString("999.99"),
			Bonuses:        []ItemBonus{},
		}},
	}

	d := Present(o)

	assert.True(t, decimal.RequireFromString("999.99").Equal(d.Items[0].LineTotal))
	assert.True(t, decimal.RequireFromString("20.00").Equal(d.Subtotal))
	assert.True(t, decimal.RequireFromString("999.99").Equal(d.FinalTotal))
}

func TestPresentEmptyBonusesNotNil(t *testing.T) {
	o := &Order{
		Items: []Item{{ProductID: "p1", Quantity: 1, Bonuses: nil}},
	}

	d := Present(o)

	// Bonuses must serialize as [] rather than null.
	require.Len(t, d.Items, 1)
	assert.NotNil(t, d.Items[0].Bonuses)
	assert.Empty(t, d.Items[0].Bonuses)
}
