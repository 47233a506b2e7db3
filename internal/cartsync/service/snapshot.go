package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	cartsyncdomain "github.com/smallbiznis/cartsync/internal/cartsync/domain"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"gorm.io/datatypes"
)

type normalized struct {
	snapshot   cartsyncdomain.Snapshot
	items      []cartsyncdomain.SnapshotItem
	conditions []cartsyncdomain.SnapshotCondition
}

// normalize flattens a priced cart into rows. Row ids and timestamps are
// left for the caller.
func normalize(c *cartdomain.Cart) (normalized, error) {
	totals, ok := c.Totals()
	if !ok {
		return normalized{}, cartdomain.ErrTotalsStale
	}

	key := c.Key()
	n := normalized{
		snapshot: cartsyncdomain.Snapshot{
			Identifier: key.Identifier,
			Instance:   key.Instance,
			Currency:   c.Currency(),
			ItemsCount: totals.ItemsCount,
			Quantity:   totals.Quantity,
			Gross:      totals.Gross,
			Subtotal:   totals.Subtotal,
			Total:      totals.Total,
			Savings:    totals.Savings,
			Breakdown:  datatypes.JSONSlice[conditiondomain.Adjustment](totals.Breakdown),
			Version:    c.Version(),
		},
	}

	for pos, cond := range c.Conditions() {
		n.conditions = append(n.conditions, conditionRow("", pos, cond, totals.Breakdown))
	}

	for pos, item := range c.Items() {
		itemTotal, _ := totals.Item(item.ID)
		n.items = append(n.items, cartsyncdomain.SnapshotItem{
			ItemID:     item.ID,
			Position:   pos,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Subtotal:   itemTotal.Subtotal,
			Total:      itemTotal.Total,
			Attributes: datatypes.JSONMap(item.Attributes),
			Breakdown:  datatypes.JSONSlice[conditiondomain.Adjustment](itemTotal.Breakdown),
		})
		for cpos, cond := range item.Conditions {
			n.conditions = append(n.conditions, conditionRow(item.ID, cpos, cond, itemTotal.Breakdown))
		}
	}

	fp, err := fingerprint(n)
	if err != nil {
		return normalized{}, err
	}
	n.snapshot.Fingerprint = fp
	return n, nil
}

func (n *normalized) assign(cartID snowflake.ID) {
	n.snapshot.ID = cartID
	for i := range n.items {
		n.items[i].CartID = cartID
	}
	for i := range n.conditions {
		n.conditions[i].CartID = cartID
	}
}

func conditionRow(itemID string, pos int, c *conditiondomain.Condition, breakdown conditiondomain.Breakdown) cartsyncdomain.SnapshotCondition {
	delta, applied := breakdown.Delta(c.Name)
	return cartsyncdomain.SnapshotCondition{
		ItemID:     itemID,
		Position:   pos,
		Name:       c.Name,
		Type:       c.Type,
		Target:     c.Target,
		Value:      c.Value,
		Order:      c.Order,
		Applied:    applied,
		Delta:      delta,
		Attributes: c.Attributes,
	}
}

// fingerprint hashes everything a sync would write except ids, version and
// timestamps, so an unchanged cart hashes the same.
func fingerprint(n normalized) (string, error) {
	s := n.snapshot
	payload := map[string]any{
		"currency":    s.Currency,
		"items_count": s.ItemsCount,
		"quantity":    s.Quantity,
		"gross":       s.Gross,
		"subtotal":    s.Subtotal,
		"total":       s.Total,
		"savings":     s.Savings,
		"breakdown":   s.Breakdown,
		"items":       n.items,
		"conditions":  n.conditions,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
