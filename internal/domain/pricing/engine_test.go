package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averix/orderhold/internal/domain/offer"
	"github.com/averix/orderhold/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	err      error
}

func (m *mockProductRepo) GetByIDs(_ context.Context, companyID string, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []product.Product
	for _, p := range m.products {
		if p.CompanyID == companyID && want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOfferRepo struct {
	offers []offer.Offer
	err    error
}

func (m *mockOfferRepo) ListByProducts(_ context.Context, productIDs []string) ([]offer.Offer, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	var out []offer.Offer
	for _, o := range m.offers {
		if o.Active && want[o.ProductID] {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- Helpers ---

func newTestProduct(id, name, price string) product.Product {
	return product.Product{
		ID:        id,
		CompanyID: "co-1",
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Active:    true,
	}
}

func newEngine(products *mockProductRepo, offers *mockOfferRepo) *Engine {
	return NewEngine(products, offers, offer.BestBenefit{})
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// --- Tests ---

func TestPriceNoOffers(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	gadget := newTestProduct("p2", "Gadget", "5.50")
	e := newEngine(&mockProductRepo{products: []product.Product{widget, gadget}}, &mockOfferRepo{})

	priced, err := e.Price(context.Background(), "co-1", []Line{
		{ProductID: "p1", Quantity: 100},
		{ProductID: "p2", Quantity: 50},
	})

	require.NoError(t, err)
	require.Len(t, priced, 2)

	requireDecimal(t, "1000.00", priced[0].LineTotal)
	requireDecimal(t, "0", priced[0].DiscountAmount)
	assert.Nil(t, priced[0].OfferID)
	assert.Zero(t, priced[0].BonusUnits)
	assert.Equal(t, "Widget", priced[0].ProductName)

	requireDecimal(t, "275.00", priced[1].LineTotal)
}

func TestPricePercentDiscount(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	e := newEngine(
		&mockProductRepo{products: []product.Product{widget}},
		&mockOfferRepo{offers: []offer.Offer{{
			ID:              "off-1",
			ProductID:       "p1",
			MinQty:          50,
			DiscountPercent: decimal.RequireFromString("10"),
			Active:          true,
		}}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 100}})

	require.NoError(t, err)
	require.Len(t, priced, 1)
	requireDecimal(t, "100.00", priced[0].DiscountAmount)
	requireDecimal(t, "900.00", priced[0].LineTotal)
	require.NotNil(t, priced[0].OfferID)
	assert.Equal(t, "off-1", *priced[0].OfferID)
}

func TestPriceBelowMinQty(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	e := newEngine(
		&mockProductRepo{products: []product.Product{widget}},
		&mockOfferRepo{offers: []offer.Offer{{
			ID:              "off-1",
			ProductID:       "p1",
			MinQty:          50,
			DiscountPercent: decimal.RequireFromString("10"),
			Active:          true,
		}}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 49}})

	require.NoError(t, err)
	assert.Nil(t, priced[0].OfferID)
	requireDecimal(t, "490.00", priced[0].LineTotal)
}

func TestPriceBonusUnits(t *testing.T) {
	gadget := newTestProduct("p2", "Gadget", "5.50")
	e := newEngine(
		&mockProductRepo{products: []product.Product{gadget}},
		&mockOfferRepo{offers: []offer.Offer{{
			ID:         "off-bonus",
			ProductID:  "p2",
			MinQty:     20,
			BonusUnits: 2,
			Active:     true,
		}}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p2", Quantity: 20}})

	require.NoError(t, err)
	assert.Equal(t, 2, priced[0].BonusUnits)
	// Bonus units are free: the paid total is unchanged.
	requireDecimal(t, "110.00", priced[0].LineTotal)
	requireDecimal(t, "0", priced[0].DiscountAmount)
}

func TestPriceSelectsBestBenefit(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	e := newEngine(
		&mockProductRepo{products: []product.Product{widget}},
		&mockOfferRepo{offers: []offer.Offer{
			{
				ID:              "off-small",
				ProductID:       "p1",
				MinQty:          10,
				DiscountPercent: decimal.RequireFromString("5"),
				Active:          true,
			},
			{
				ID:              "off-big",
				ProductID:       "p1",
				MinQty:          10,
				DiscountPercent: decimal.RequireFromString("15"),
				Active:          true,
			},
		}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 10}})

	require.NoError(t, err)
	require.NotNil(t, priced[0].OfferID)
	assert.Equal(t, "off-big", *priced[0].OfferID)
	requireDecimal(t, "15.00", priced[0].DiscountAmount)
}

func TestPriceTieBreakMostRecent(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	e := newEngine(
		&mockProductRepo{products: []product.Product{widget}},
		&mockOfferRepo{offers: []offer.Offer{
			{
				ID:              "off-old",
				ProductID:       "p1",
				MinQty:          1,
				DiscountPercent: decimal.RequireFromString("10"),
				Active:          true,
				CreatedAt:       older,
			},
			{
				ID:              "off-new",
				ProductID:       "p1",
				MinQty:          1,
				DiscountPercent: decimal.RequireFromString("10"),
				Active:          true,
				CreatedAt:       newer,
			},
		}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 5}})

	require.NoError(t, err)
	require.NotNil(t, priced[0].OfferID)
	assert.Equal(t, "off-new", *priced[0].OfferID)
}

func TestPriceFullDiscountClampedAtZero(t *testing.T) {
	widget := newTestProduct("p1", "Widget", "10.00")
	e := newEngine(
		&mockProductRepo{products: []product.Product{widget}},
		&mockOfferRepo{offers: []offer.Offer{{
			ID:              "off-free",
			ProductID:       "p1",
			MinQty:          1,
			DiscountPercent: decimal.RequireFromString("100"),
			Active:          true,
		}}},
	)

	priced, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 3}})

	require.NoError(t, err)
	requireDecimal(t, "30.00", priced[0].DiscountAmount)
	requireDecimal(t, "0", priced[0].LineTotal)
}

func TestPriceUnknownProduct(t *testing.T) {
	e := newEngine(&mockProductRepo{}, &mockOfferRepo{})

	_, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "missing", Quantity: 1}})

	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "missing", pnf.ProductID)
}

func TestPriceForeignCompanyProduct(t *testing.T) {
	// A product that belongs to another company must look like a missing one.
	foreign := newTestProduct("p1", "Widget", "10.00")
	foreign.CompanyID = "co-other"
	e := newEngine(&mockProductRepo{products: []product.Product{foreign}}, &mockOfferRepo{})

	_, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 1}})

	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
}

func TestPriceInactiveProduct(t *testing.T) {
	retired := newTestProduct("p1", "Widget", "10.00")
	retired.Active = false
	e := newEngine(&mockProductRepo{products: []product.Product{retired}}, &mockOfferRepo{})

	_, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 1}})

	var pia *ProductInactiveError
	require.ErrorAs(t, err, &pia)
	assert.Equal(t, "p1", pia.ProductID)
}

func TestPriceRepositoryError(t *testing.T) {
	e := newEngine(&mockProductRepo{err: errors.New("db down")}, &mockOfferRepo{})

	_, err := e.Price(context.Background(), "co-1", []Line{{ProductID: "p1", Quantity: 1}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}
