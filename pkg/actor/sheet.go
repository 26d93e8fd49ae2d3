package actor

import (
	"fmt"
	"maps"
	"strings"

	"github.com/jwebster45206/d20"
)

// defaultArmor is used for every sheet; investigators have no armour class.
const defaultArmor = 10

// Sheet builds a d20.Actor view of the character for percentile checks:
// characteristics and skills become attributes, HP carries over.
func (c *CharacterProfile) Sheet() (*d20.Actor, error) {
	attrs := c.Characteristics.ToAttributes()
	maps.Copy(attrs, c.Skills)
	attrs["luck"] = c.Status.Luck
	attrs["sanity"] = c.Status.Sanity
	attrs["mp"] = c.Status.MP

	maxHP := max(c.Status.MaxHP, c.Status.HP, 1)
	a, err := d20.NewActor(c.ID).
		WithHP(maxHP).
		WithAC(defaultArmor).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet for %s: %w", c.Name, err)
	}

	if c.Status.HP != maxHP && c.Status.HP > 0 {
		if err := a.SetHP(c.Status.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return a, nil
}

// Summary renders a one-paragraph sheet for prompts.
func (c *CharacterProfile) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (id %s). ", c.Name, c.ID)
	chars := c.Characteristics.ToAttributes()

	fmt.Fprintf(&b, "HP %d/%d, SAN %d/%d, Luck %d, MP %d.",
		c.Status.HP, c.Status.MaxHP, c.Status.Sanity, c.Status.MaxSanity, c.Status.Luck, c.Status.MP)
	if len(c.Status.Conditions) > 0 {
		fmt.Fprintf(&b, " Conditions: %s.", strings.Join(c.Status.Conditions, ", "))
	}

	parts := make([]string, 0, len(CharacteristicKeys))
	for _, k := range CharacteristicKeys {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToUpper(k), chars[k]))
	}
	fmt.Fprintf(&b, " %s.", strings.Join(parts, ", "))

	if len(c.Skills) > 0 {
		skills := make([]string, 0, len(c.Skills))
		for _, k := range sortedKeys(c.Skills) {
			skills = append(skills, fmt.Sprintf("%s %d", k, c.Skills[k]))
		}
		fmt.Fprintf(&b, " Skills: %s.", strings.Join(skills, ", "))
	}
	if len(c.Inventory) > 0 {
		items := make([]string, 0, len(c.Inventory))
		for _, it := range c.Inventory {
			if it.Quantity > 1 {
				items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
			} else {
				items = append(items, it.Name)
			}
		}
		fmt.Fprintf(&b, " Carrying: %s.", strings.Join(items, ", "))
	}
	return b.String()
}
