package catalog

// Catalog is the read-only item and room table. It is safe for concurrent use
// once built.
type Catalog struct {
	version   string
	items     map[string]Item
	rooms     map[string]Room
	itemOrder []string
	roomOrder []string
}

// New validates the definitions and builds a catalog.
func New(f File) (*Catalog, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	c := &Catalog{
		version: f.Version,
		items:   make(map[string]Item, len(f.Items)),
		rooms:   make(map[string]Room, len(f.Rooms)),
	}
	for _, it := range f.Items {
		c.items[it.ID] = it
		c.itemOrder = append(c.itemOrder, it.ID)
	}
	for _, r := range f.Rooms {
		r.ItemPool = append([]string(nil), r.ItemPool...)
		c.rooms[r.ID] = r
		c.roomOrder = append(c.roomOrder, r.ID)
	}
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

// Item looks up an item definition. A miss is a *DataIntegrityError.
func (c *Catalog) Item(id string) (Item, error) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, &DataIntegrityError{Kind: "item", ID: id, Err: ErrItemNotFound}
	}
	return it, nil
}

// Room looks up a room definition. A miss is a *DataIntegrityError.
func (c *Catalog) Room(id string) (Room, error) {
	r, ok := c.rooms[id]
	if !ok {
		return Room{}, &DataIntegrityError{Kind: "room", ID: id, Err: ErrRoomNotFound}
	}
	r.ItemPool = append([]string(nil), r.ItemPool...)
	return r, nil
}

// ItemCount is the number of distinct items, the denominator of the
// collection completion rate.
func (c *Catalog) ItemCount() int { return len(c.items) }

// Items returns every item in declaration order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.itemOrder))
	for _, id := range c.itemOrder {
		out = append(out, c.items[id])
	}
	return out
}

func (c *Catalog) ItemsByTier(tier int) []Item {
	var out []Item
	for _, id := range c.itemOrder {
		if it := c.items[id]; it.Tier == tier {
			out = append(out, it)
		}
	}
	return out
}

// Rooms returns every room in declaration order.
func (c *Catalog) Rooms() []Room {
	out := make([]Room, 0, len(c.roomOrder))
	for _, id := range c.roomOrder {
		r, _ := c.Room(id)
		out = append(out, r)
	}
	return out
}
