package merge

// SlotCount is fixed; the merge bar always has three slots.
const SlotCount = 3

// Slots holds item ids; "" is an empty slot.
type Slots [SlotCount]string

// FirstEmpty returns the lowest empty index, or -1 when all are filled.
func (s Slots) FirstEmpty() int {
	for i, id := range s {
		if id == "" {
			return i
		}
	}
	return -1
}

func (s Slots) Full() bool { return s.FirstEmpty() == -1 }

// Triple reports the shared id when all three slots hold the same item.
func (s Slots) Triple() (string, bool) {
	if !s.Full() {
		return "", false
	}
	for _, id := range s[1:] {
		if id != s[0] {
			return "", false
		}
	}
	return s[0], true
}
