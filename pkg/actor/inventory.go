package actor

import (
	"slices"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// Item is an inventory entry. Quantity zero on input means "one".
type Item struct {
	Name       string            `json:"name"`
	Quantity   int               `json:"quantity,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (it Item) count() int {
	if it.Quantity <= 0 {
		return 1
	}
	return it.Quantity
}

// FindItem returns the index of the item named name, or -1.
func (c *CharacterProfile) FindItem(name string) int {
	folded := textfilter.Fold(name)
	return slices.IndexFunc(c.Inventory, func(it Item) bool {
		return textfilter.Fold(it.Name) == folded
	})
}

// AddItem adds it to the inventory, merging quantity with an existing entry
// of the same name. New properties overwrite existing keys.
func (c *CharacterProfile) AddItem(it Item) {
	if textfilter.Fold(it.Name) == "" {
		return
	}
	if i := c.FindItem(it.Name); i >= 0 {
		existing := &c.Inventory[i]
		existing.Quantity = existing.count() + it.count()
		for k, v := range it.Properties {
			if existing.Properties == nil {
				existing.Properties = make(map[string]string)
			}
			existing.Properties[k] = v
		}
		return
	}
	it.Quantity = it.count()
	c.Inventory = append(c.Inventory, it)
}

// RemoveItem decrements the named item by quantity, removing it entirely
// when the count reaches zero or quantity is not given. It returns false if
// the character does not carry the item.
func (c *CharacterProfile) RemoveItem(name string, quantity int) bool {
	i := c.FindItem(name)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Inventory = slices.Delete(c.Inventory, i, i+1)
		return true
	}
	remaining := c.Inventory[i].count() - quantity
	if remaining <= 0 {
		c.Inventory = slices.Delete(c.Inventory, i, i+1)
		return true
	}
	c.Inventory[i].Quantity = remaining
	return true
}

// ReplaceInventory swaps the whole inventory for items. Duplicate names in
// items are merged.
func (c *CharacterProfile) ReplaceInventory(items []Item) {
	c.Inventory = nil
	for _, it := range items {
		c.AddItem(it)
	}
}
