package ledger

import "github.com/xtding233/junkroom/internal/catalog"

type CollectionEntry struct {
	Item      catalog.Item `json:"item"`
	Count     int          `json:"count"`
	Collected bool         `json:"collected"`
}

type TierGroup struct {
	Tier    int               `json:"tier"`
	Entries []CollectionEntry `json:"entries"`
}

// CollectionView is the collection screen: every catalog item grouped by
// tier with how many the player has obtained.
type CollectionView struct {
	Tiers          []TierGroup `json:"tiers"`
	Distinct       int         `json:"distinct"`
	Total          int         `json:"total"`
	CompletionRate int         `json:"completionRate"`
}

func Collection(p PlayerData, cat *catalog.Catalog) CollectionView {
	v := CollectionView{Total: cat.ItemCount()}
	for tier := catalog.MinTier; tier <= catalog.MaxTier; tier++ {
		g := TierGroup{Tier: tier}
		for _, it := range cat.ItemsByTier(tier) {
			n := p.CollectedItems[it.ID]
			g.Entries = append(g.Entries, CollectionEntry{Item: it, Count: n, Collected: n > 0})
			if n > 0 {
				v.Distinct++
			}
		}
		v.Tiers = append(v.Tiers, g)
	}
	if v.Total > 0 {
		v.CompletionRate = (200*v.Distinct + v.Total) / (2 * v.Total)
	}
	return v
}
