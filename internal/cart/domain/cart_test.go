package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "USD")
	require.NoError(t, err)
	return m
}

func qty(t *testing.T, n int64) money.Quantity {
	t.Helper()
	q, err := money.QuantityFromInt(n)
	require.NoError(t, err)
	return q
}

func activeCart(t *testing.T) *Cart {
	t.Helper()
	return NewCart(NewCartID(), "C1")
}

func TestAddItemMergesSameSKU(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 2), usd(t, "10.00")))
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 3), usd(t, "10.00")))

	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].Quantity.Equal(qty(t, 5)))
	assert.True(t, c.Total().Equal(usd(t, "50.00")))
}

func TestAddItemRejectsPriceMismatch(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 1), usd(t, "10.00")))
	err := c.AddItem("BOOK000001", qty(t, 1), usd(t, "12.00"))
	assert.ErrorIs(t, err, ErrUnitPriceMismatch)
}

func TestAddItemRejectsMixedCurrency(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 1), usd(t, "10.00")))

	eur, err := money.Parse("5.00", "EUR")
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddItem("GAME000001", qty(t, 1), eur), ErrCurrencyMismatch)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 2), usd(t, "10.00")))

	require.NoError(t, c.UpdateItemQuantity("BOOK000001", qty(t, 7)))
	assert.True(t, c.Items[0].Quantity.Equal(qty(t, 7)))

	assert.ErrorIs(t, c.UpdateItemQuantity("GAME000001", qty(t, 1)), ErrItemNotFound)

	require.NoError(t, c.RemoveItem("BOOK000001"))
	assert.Empty(t, c.Items)
	assert.ErrorIs(t, c.RemoveItem("BOOK000001"), ErrItemNotFound)
}

func TestCheckout(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 2), usd(t, "10.00")))
	require.NoError(t, c.AddItem("GAME000001", qty(t, 1), usd(t, "30.00")))

	ev, err := c.Checkout()
	require.NoError(t, err)
	assert.Equal(t, CartStatusCheckedOut, c.Status)
	assert.Equal(t, events.TypeCartCheckedOut, ev.EventType())
	assert.Equal(t, string(c.ID), ev.AggregateID())
	assert.Len(t, ev.Items, 2)
	assert.True(t, ev.Total.Equal(usd(t, "50.00")))
}

func TestCheckoutEmptyCart(t *testing.T) {
	c := activeCart(t)
	_, err := c.Checkout()
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, CartStatusActive, c.Status)
}

func TestCheckedOutCartIsFrozen(t *testing.T) {
	c := activeCart(t)
	require.NoError(t, c.AddItem("BOOK000001", qty(t, 1), usd(t, "10.00")))
	_, err := c.Checkout()
	require.NoError(t, err)

	assert.ErrorIs(t, c.AddItem("GAME000001", qty(t, 1), usd(t, "5.00")), ErrCartNotEditable)
	assert.ErrorIs(t, c.UpdateItemQuantity("BOOK000001", qty(t, 2)), ErrCartNotEditable)
	assert.ErrorIs(t, c.RemoveItem("BOOK000001"), ErrCartNotEditable)
	assert.ErrorIs(t, c.Clear(), ErrCartNotEditable)

	_, err = c.Checkout()
	assert.ErrorIs(t, err, ErrCartNotEditable)
}
