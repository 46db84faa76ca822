package value

// EventType identifies a union state transition.
type EventType uint8

const (
	EventSelected EventType = iota
	EventFieldCleared
	EventCleared
	EventFieldWritten
)

var eventNames = [...]string{
	EventSelected:     "selected",
	EventFieldCleared: "field_cleared",
	EventCleared:      "cleared",
	EventFieldWritten: "field_written",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Event describes a transition. Field is set for EventFieldWritten only.
type Event struct {
	Value      any
	Field      string
	Generation uint64
	Variant    int
	Type       EventType
}

// Observer receives notifications about union state transitions.
type Observer interface {
	OnUnionEvent(Event)
}

// Observers is a list of observers. The zero value is ready to use.
type Observers struct {
	list []Observer
}

// Subscribe adds an observer.
func (o *Observers) Subscribe(obs Observer) {
	o.list = append(o.list, obs)
}

// Unsubscribe removes an observer.
func (o *Observers) Unsubscribe(obs Observer) {
	for i, cur := range o.list {
		if cur == obs {
			o.list = append(o.list[:i], o.list[i+1:]...)
			return
		}
	}
}

// Notify delivers e to every observer in subscription order.
func (o *Observers) Notify(e Event) {
	for _, obs := range o.list {
		obs.OnUnionEvent(e)
	}
}
