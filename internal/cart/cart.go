package cart

import (
	"sort"

	"canteen-system/internal/menu"
)

// Line is one cart entry: a catalog item and a quantity of at least 1.
type Line struct {
	Item     *menu.FoodItem
	Quantity int
}

// Cart holds a customer's pre-checkout selection. Entries are keyed by the
// catalog item ID, so structurally equal item instances aggregate into one
// line. A stored quantity is always >= 1; dropping to 0 removes the line.
type Cart struct {
	cartID     string
	customerID string
	lines      map[string]*Line
}

// New creates an empty cart for a customer session.
func New(cartID, customerID string) *Cart {
	return &Cart{
		cartID:     cartID,
		customerID: customerID,
		lines:      make(map[string]*Line),
	}
}

func (c *Cart) CartID() string     { return c.cartID }
func (c *Cart) CustomerID() string { return c.customerID }

// AddItem increments the quantity for the item by one, inserting a new line
// at quantity 1 if the item is not in the cart yet.
func (c *Cart) AddItem(item *menu.FoodItem) {
	if line, ok := c.lines[item.ItemID()]; ok {
		line.Quantity++
		return
	}
	c.lines[item.ItemID()] = &Line{Item: item, Quantity: 1}
}

// RemoveItem decrements the quantity for the item by one, removing the line
// when the quantity would reach zero. Unknown items are ignored.
func (c *Cart) RemoveItem(itemID string) {
	line, ok := c.lines[itemID]
	if !ok {
		return
	}
	if line.Quantity > 1 {
		line.Quantity--
		return
	}
	delete(c.lines, itemID)
}

// RemoveAll removes the item's line entirely. Unknown items are ignored.
func (c *Cart) RemoveAll(itemID string) {
	delete(c.lines, itemID)
}

// UpdateItemQuantity sets the quantity for the item, removing the line when
// the requested quantity is zero or negative.
func (c *Cart) UpdateItemQuantity(item *menu.FoodItem, quantity int) {
	if quantity <= 0 {
		delete(c.lines, item.ItemID())
		return
	}
	if line, ok := c.lines[item.ItemID()]; ok {
		line.Quantity = quantity
		return
	}
	c.lines[item.ItemID()] = &Line{Item: item, Quantity: quantity}
}

// ItemQuantity returns the quantity for the item, or 0 if absent.
func (c *Cart) ItemQuantity(itemID string) int {
	if line, ok := c.lines[itemID]; ok {
		return line.Quantity
	}
	return 0
}

// CalculateTotal returns the sum of price times quantity over all lines.
// The total is always derived, never cached.
func (c *Cart) CalculateTotal() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.Item.Price() * float64(line.Quantity)
	}
	return total
}

// Lines returns a copy of the cart contents, sorted by item ID.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Item.ItemID() < lines[j].Item.ItemID()
	})
	return lines
}

// Size returns the number of distinct items in the cart.
func (c *Cart) Size() int {
	return len(c.lines)
}

// ClearCart empties the cart.
func (c *Cart) ClearCart() {
	c.lines = make(map[string]*Line)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
