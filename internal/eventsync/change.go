// Package eventsync carries event change notifications from the API to live clients
// and reconciles them into a client-held list.
package eventsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

type RowRef struct {
	ID string `json:"id"`
}

// Change mirrors a row-level notification: New is the row after the write, Old identifies the row before it.
type Change struct {
	Type ChangeType   `json:"type"`
	New  *model.Event `json:"new,omitempty"`
	Old  *RowRef      `json:"old,omitempty"`
}

func InsertChange(e model.Event) Change {
	return Change{Type: ChangeInsert, New: &e}
}

func UpdateChange(e model.Event) Change {
	return Change{Type: ChangeUpdate, New: &e, Old: &RowRef{ID: e.ID}}
}

func DeleteChange(id string) Change {
	return Change{Type: ChangeDelete, Old: &RowRef{ID: id}}
}

// RowID is the id the change applies to. Deletes prefer the old row id.
func (c Change) RowID() string {
	if c.Type == ChangeDelete && c.Old != nil && c.Old.ID != "" {
		return c.Old.ID
	}
	if c.New != nil && c.New.ID != "" {
		return c.New.ID
	}
	if c.Old != nil {
		return c.Old.ID
	}
	return ""
}

func (c Change) Validate() error {
	switch c.Type {
	case ChangeInsert, ChangeUpdate:
		if c.New == nil || c.New.ID == "" {
			return fmt.Errorf("%s change without new row", c.Type)
		}
	case ChangeDelete:
		if c.RowID() == "" {
			return errors.New("DELETE change without row id")
		}
	default:
		return fmt.Errorf("unknown change type %q", c.Type)
	}
	return nil
}

func EncodeChange(c Change) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

func DecodeChange(payload []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(payload, &c); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Change{}, err
	}
	return c, nil
}
