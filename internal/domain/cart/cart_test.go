package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latte(qty int) Item {
	return Item{ProductID: "latte", Name: "Latte", Size: "M", UnitPrice: 450, Quantity: qty}
}

func TestCart_AddMergesLines(t *testing.T) {
	c, err := Cart{}.Apply(AddItem{Item: latte(1)})
	require.NoError(t, err)
	c, err = c.Apply(AddItem{Item: latte(2)})
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "m", c.Items[0].Size)
	assert.Equal(t, int64(1350), c.Total())
	assert.Equal(t, 3, c.Count())
}

func TestCart_SizesAreSeparateLines(t *testing.T) {
	c, err := Cart{}.Apply(AddItem{Item: latte(1)})
	require.NoError(t, err)
	large := latte(1)
	large.Size = "L"
	large.UnitPrice = 520
	c, err = c.Apply(AddItem{Item: large})
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
	assert.Equal(t, int64(970), c.Total())
}

func TestCart_ApplyDoesNotMutateReceiver(t *testing.T) {
	orig, err := Cart{}.Apply(AddItem{Item: latte(1)})
	require.NoError(t, err)
	_, err = orig.Apply(UpdateQuantity{Key: LineKey{ProductID: "latte", Size: "m"}, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, orig.Items[0].Quantity)
}

func TestCart_UpdateQuantity(t *testing.T) {
	c, err := Cart{}.Apply(AddItem{Item: latte(1)})
	require.NoError(t, err)

	c, err = c.Apply(UpdateQuantity{Key: LineKey{ProductID: "latte", Size: "M"}, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c, err = c.Apply(UpdateQuantity{Key: LineKey{ProductID: "latte", Size: "M"}, Quantity: 0})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCart_Errors(t *testing.T) {
	_, err := Cart{}.Apply(AddItem{Item: latte(0)})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Cart{}.Apply(AddItem{Item: Item{Name: "nothing", Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = Cart{}.Apply(RemoveItem{Key: LineKey{ProductID: "missing"}})
	require.ErrorIs(t, err, ErrLineNotFound)

	c, err := Cart{}.Apply(AddItem{Item: latte(15)})
	require.NoError(t, err)
	_, err = c.Apply(AddItem{Item: latte(10)})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.Apply(UpdateQuantity{Key: LineKey{ProductID: "latte", Size: "m"}, Quantity: 21})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.Apply(nil)
	require.Error(t, err)
}

func TestCart_RemoveAndClear(t *testing.T) {
	c, err := Cart{}.Apply(AddItem{Item: latte(1)})
	require.NoError(t, err)
	c, err = c.Apply(AddItem{Item: Item{ProductID: "mocha", Name: "Mocha", UnitPrice: 500, Quantity: 1}})
	require.NoError(t, err)

	c, err = c.Apply(RemoveItem{Key: LineKey{ProductID: "latte", Size: "m"}})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	_, ok := c.Line(LineKey{ProductID: "mocha"})
	assert.True(t, ok)

	c, err = c.Apply(Clear{})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
}

func TestCart_MaxLines(t *testing.T) {
	c := Cart{}
	var err error
	for i := 0; i < MaxLines; i++ {
		c, err = c.Apply(AddItem{Item: Item{ProductID: string(rune('a'+i%26)) + string(rune('a'+i/26)), UnitPrice: 1, Quantity: 1}})
		require.NoError(t, err)
	}
	_, err = c.Apply(AddItem{Item: Item{ProductID: "overflow", UnitPrice: 1, Quantity: 1}})
	require.ErrorIs(t, err, ErrTooManyLines)
}
