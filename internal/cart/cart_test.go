package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAccumulatesAndReplaces(t *testing.T) {
	c := New()
	price := decimal.NewFromInt(1300)

	c.Add("p1", price, 2, false)
	c.Add("p1", price, 1, false)
	assert.Equal(t, 3, c.Quantity("p1"))

	c.Add("p1", price, 1, true)
	assert.Equal(t, 1, c.Quantity("p1"))

	// replace with zero removes the line
	c.Add("p1", price, 0, true)
	assert.Equal(t, 0, c.Quantity("p1"))
	assert.Equal(t, 0, c.Len())
}

func TestAddKeepsAddTimePrice(t *testing.T) {
	c := New()

	c.Add("p1", decimal.NewFromInt(100), 1, false)
	c.Add("p1", decimal.NewFromInt(200), 1, false)

	assert.Equal(t, 2, c.Quantity("p1"))
	assert.True(t, c.Items["p1"].Price.Equal(decimal.NewFromInt(100)),
		"line price should stay at add-time snapshot 100, got %s", c.Items["p1"].Price)

	// quantity updates keep the snapshot too
	c.Add("p1", decimal.NewFromInt(300), 4, true)
	assert.True(t, c.Items["p1"].Price.Equal(decimal.NewFromInt(100)))

	// only removal discards the snapshot; a fresh add takes the new price
	c.Remove("p1")
	c.Add("p1", decimal.NewFromInt(200), 1, false)
	assert.True(t, c.Items["p1"].Price.Equal(decimal.NewFromInt(200)))
}

func TestLenAndTotal(t *testing.T) {
	c := New()
	c.Add("p1", decimal.NewFromInt(1300), 2, false)
	c.Add("p2", decimal.RequireFromString("999.50"), 1, false)

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Total().Equal(decimal.RequireFromString("3599.50")), "got %s", c.Total())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	c.Add("p1", decimal.RequireFromString("1299.99"), 2, false)
	c.Add("p2", decimal.NewFromInt(4200), 1, false)

	data, err := c.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 2, decoded.Quantity("p1"))
	assert.Equal(t, 1, decoded.Quantity("p2"))
	assert.True(t, decoded.Items["p1"].Price.Equal(decimal.RequireFromString("1299.99")))
	assert.True(t, decoded.Total().Equal(c.Total()))
}

func TestDecodeCorruptDocument(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.ErrorIs(t, err, ErrCorruptCart)
}

func TestDecodeDropsBrokenLines(t *testing.T) {
	data := []byte(`{
		"good": {"quantity": 2, "price": "100"},
		"badprice": {"quantity": 1, "price": "oops"},
		"zeroqty": {"quantity": 0, "price": "50"}
	}`)

	c, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Quantity("good"))
	assert.Equal(t, 0, c.Quantity("badprice"))
	assert.Equal(t, 0, c.Quantity("zeroqty"))
	assert.Len(t, c.Items, 1)
}

func TestClampedAdd(t *testing.T) {
	price := decimal.NewFromInt(1000)

	t.Run("within stock", func(t *testing.T) {
		c := New()
		applied, clamped := c.ClampedAdd("p1", price, 2, 5, false)
		assert.Equal(t, 2, applied)
		assert.False(t, clamped)
		assert.Equal(t, 2, c.Quantity("p1"))
	})

	t.Run("clamps at stock", func(t *testing.T) {
		c := New()
		c.Add("p1", price, 3, false)

		// 3 in cart, stock 5, asking 4 more: only 2 fit
		applied, clamped := c.ClampedAdd("p1", price, 4, 5, false)
		assert.Equal(t, 2, applied)
		assert.True(t, clamped)
		assert.Equal(t, 5, c.Quantity("p1"))
	})

	t.Run("already at stock", func(t *testing.T) {
		c := New()
		c.Add("p1", price, 5, false)

		applied, clamped := c.ClampedAdd("p1", price, 1, 5, false)
		assert.Equal(t, 0, applied)
		assert.True(t, clamped)
		assert.Equal(t, 5, c.Quantity("p1"))
	})

	t.Run("replace clamps too", func(t *testing.T) {
		c := New()
		c.Add("p1", price, 2, false)

		applied, clamped := c.ClampedAdd("p1", price, 9, 5, true)
		assert.Equal(t, 5, applied)
		assert.True(t, clamped)
		assert.Equal(t, 5, c.Quantity("p1"))
	})

	t.Run("zero stock removes nothing and adds nothing", func(t *testing.T) {
		c := New()
		applied, clamped := c.ClampedAdd("p1", price, 2, 0, false)
		assert.Equal(t, 0, applied)
		assert.True(t, clamped)
		assert.Equal(t, 0, c.Quantity("p1"))
	})
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	c, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.Add("p1", decimal.NewFromInt(100), 2, false)
	require.NoError(t, store.Save(ctx, "sess-1", c))

	loaded, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Quantity("p1"))

	// carts are per session
	other, err := store.Get(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())

	require.NoError(t, store.Delete(ctx, "sess-1"))
	cleared, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Len())
}
