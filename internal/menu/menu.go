package menu

import (
	"strings"

	"canteen-system/internal/validation"
)

// FoodItem is a catalog entry offered by a vendor. It is immutable after
// construction; the cart and orders reference it by its item ID.
type FoodItem struct {
	itemID   string
	name     string
	price    float64
	category string
}

// NewFoodItem creates a catalog item. Price must not be negative.
func NewFoodItem(itemID, name string, price float64, category string) (*FoodItem, error) {
	if itemID == "" {
		return nil, validation.ValidationError{Field: "item_id", Message: "item id is required"}
	}
	if name == "" {
		return nil, validation.ValidationError{Field: "name", Message: "item name is required"}
	}
	if price < 0 {
		return nil, validation.ValidationError{Field: "price", Message: "price cannot be negative"}
	}

	return &FoodItem{
		itemID:   itemID,
		name:     name,
		price:    price,
		category: category,
	}, nil
}

func (f *FoodItem) ItemID() string   { return f.itemID }
func (f *FoodItem) Name() string     { return f.name }
func (f *FoodItem) Price() float64   { return f.price }
func (f *FoodItem) Category() string { return f.category }

// Menu is the ordered collection of items a vendor offers.
type Menu struct {
	items []*FoodItem
}

// New creates an empty menu.
func New() *Menu {
	return &Menu{}
}

// AddItem appends an item to the menu.
func (m *Menu) AddItem(item *FoodItem) {
	m.items = append(m.items, item)
}

// RemoveItem removes the item with the given ID. It is a no-op if the item
// is not on the menu.
func (m *Menu) RemoveItem(itemID string) {
	for i, item := range m.items {
		if item.itemID == itemID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return
		}
	}
}

// Items returns the menu entries in the order they were added.
func (m *Menu) Items() []*FoodItem {
	items := make([]*FoodItem, len(m.items))
	copy(items, m.items)
	return items
}

// FindByID returns the item with the given ID, or nil if absent.
func (m *Menu) FindByID(itemID string) *FoodItem {
	for _, item := range m.items {
		if item.itemID == itemID {
			return item
		}
	}
	return nil
}

// FindByName returns the first item whose name matches, ignoring case.
func (m *Menu) FindByName(name string) *FoodItem {
	for _, item := range m.items {
		if strings.EqualFold(item.name, name) {
			return item
		}
	}
	return nil
}
