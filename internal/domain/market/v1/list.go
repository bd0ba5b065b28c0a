package v1

// Direction determines how a List orders its events by price.
type Direction int

const (
	// Ascending keeps the lowest price first, used for offers.
	Ascending Direction = iota
	// Descending keeps the highest price first, used for bids.
	Descending
)

// List holds one side of the order book, ordered by price with
// arrival order preserved among equal prices.
type List struct {
	direction Direction
	events    []*Event
}

// NewList returns an empty list with the given price direction.
func NewList(direction Direction) *List {
	return &List{direction: direction}
}

// Insert places ev so that price order holds and ev lands after every
// event already resting at the same price.
func (l *List) Insert(ev *Event) {
	for i, cur := range l.events {
		if l.compare(ev, cur) < 0 {
			l.events = append(l.events, nil)
			copy(l.events[i+1:], l.events[i:])
			l.events[i] = ev
			return
		}
	}
	l.events = append(l.events, ev)
}

// compare returns a negative value when a is strictly better placed
// than b for this side, zero at equal price.
func (l *List) compare(a, b *Event) int {
	switch {
	case a.OrderPrice == b.OrderPrice:
		return 0
	case a.OrderPrice < b.OrderPrice:
		if l.direction == Ascending {
			return -1
		}
		return 1
	default:
		if l.direction == Ascending {
			return 1
		}
		return -1
	}
}

// Len returns the number of resting events.
func (l *List) Len() int {
	return len(l.events)
}

// At returns the event at position i.
func (l *List) At(i int) *Event {
	return l.events[i]
}

// Best returns the front of the list, nil when empty.
func (l *List) Best() *Event {
	if len(l.events) == 0 {
		return nil
	}
	return l.events[0]
}

// Events returns the backing slice in price order. Callers must not
// mutate it; it is only valid until the next Insert or Remove.
func (l *List) Events() []*Event {
	return l.events
}

// Find returns the resting event with the given client order id,
// nil when absent.
func (l *List) Find(clientOrderID string) *Event {
	for _, ev := range l.events {
		if ev.ClientOrderID == clientOrderID {
			return ev
		}
	}
	return nil
}

// Remove deletes the resting event with the given client order id and
// returns it, nil when absent.
func (l *List) Remove(clientOrderID string) *Event {
	for i, ev := range l.events {
		if ev.ClientOrderID == clientOrderID {
			l.events = append(l.events[:i], l.events[i+1:]...)
			return ev
		}
	}
	return nil
}
