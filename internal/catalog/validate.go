package catalog

import (
	"fmt"
	"strings"
)

// Validate checks the semantic constraints of a catalog document.
func Validate(f File) error {
	var errs []string

	items := make(map[string]Item, len(f.Items))
	for i, it := range f.Items {
		if it.ID == "" {
			errs = append(errs, fmt.Sprintf("items[%d].id is required", i))
			continue
		}
		if _, dup := items[it.ID]; dup {
			errs = append(errs, fmt.Sprintf("items[%d].id %q is duplicated", i, it.ID))
			continue
		}
		items[it.ID] = it
	}

	for _, it := range f.Items {
		if it.ID == "" {
			continue
		}
		if it.Tier < MinTier || it.Tier > MaxTier {
			errs = append(errs, fmt.Sprintf("item %q: tier must be in [%d,%d]", it.ID, MinTier, MaxTier))
		}
		switch it.Rarity {
		case Common, Rare, Legendary:
		default:
			errs = append(errs, fmt.Sprintf("item %q: rarity must be one of: common, rare, legendary", it.ID))
		}
		if it.MergeTo == "" {
			if it.Tier >= MinTier && it.Tier < MaxTier {
				errs = append(errs, fmt.Sprintf("item %q: tier %d items need merge_to", it.ID, it.Tier))
			}
			continue
		}
		next, ok := items[it.MergeTo]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("item %q: merge_to %q does not exist", it.ID, it.MergeTo))
		case next.Tier != it.Tier+1:
			errs = append(errs, fmt.Sprintf("item %q: merge_to %q must be tier %d, got %d", it.ID, it.MergeTo, it.Tier+1, next.Tier))
		}
	}

	seenRooms := make(map[string]bool, len(f.Rooms))
	for i, r := range f.Rooms {
		if r.ID == "" {
			errs = append(errs, fmt.Sprintf("rooms[%d].id is required", i))
			continue
		}
		if seenRooms[r.ID] {
			errs = append(errs, fmt.Sprintf("rooms[%d].id %q is duplicated", i, r.ID))
		}
		seenRooms[r.ID] = true

		if len(r.ItemPool) == 0 {
			errs = append(errs, fmt.Sprintf("room %q: item_pool must not be empty", r.ID))
		}
		for j, id := range r.ItemPool {
			if _, ok := items[id]; !ok {
				errs = append(errs, fmt.Sprintf("room %q: item_pool[%d] %q does not exist", r.ID, j, id))
			}
		}
		if r.ClearTarget <= 0 {
			errs = append(errs, fmt.Sprintf("room %q: clear_target must be >= 1", r.ID))
		}
		if r.CoinReward < 0 {
			errs = append(errs, fmt.Sprintf("room %q: coin_reward must be >= 0", r.ID))
		}
		if r.UnlockCost < 0 {
			errs = append(errs, fmt.Sprintf("room %q: unlock_cost must be >= 0", r.ID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
