package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrRoomNotFound = errors.New("room not found")
)

// DataIntegrityError reports a lookup miss against the catalog. The room or
// item it names cannot be rendered or merged.
type DataIntegrityError struct {
	Kind string // "item" | "room"
	ID   string
	Err  error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }
