package eventsync

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// Mirror is a client-side copy of the event list kept sorted by datetime.
type Mirror struct {
	mu     sync.RWMutex
	events []model.Event
}

func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Replace(events []model.Event) {
	next := slices.Clone(events)
	sortEvents(next)
	m.mu.Lock()
	m.events = next
	m.mu.Unlock()
}

// Apply reconciles one change. Replaying a change, or receiving it after the
// initiating client already applied it locally, leaves the list unchanged.
func (m *Mirror) Apply(c Change) {
	if c.Validate() != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch c.Type {
	case ChangeInsert:
		if m.indexOf(c.New.ID) < 0 {
			m.events = append(m.events, *c.New)
		}
	case ChangeUpdate:
		if i := m.indexOf(c.New.ID); i >= 0 {
			m.events[i] = *c.New
		} else {
			m.events = append(m.events, *c.New)
		}
	case ChangeDelete:
		id := c.RowID()
		m.events = slices.DeleteFunc(m.events, func(e model.Event) bool { return e.ID == id })
	}
	sortEvents(m.events)
}

func (m *Mirror) Snapshot() []model.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *Mirror) indexOf(id string) int {
	return slices.IndexFunc(m.events, func(e model.Event) bool { return e.ID == id })
}

func sortEvents(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := a.Datetime.Compare(b.Datetime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
