// Package toaster holds the toast notification queue and the driver that
// ages toasts once per tick and removes them when they run out.
//
// State is a plain value with reducer methods; it is owned by the client
// store, which serializes every mutation. Timer handles never live in State:
// the Driver keeps them in a side table keyed by toast id and State only
// records whether a timer is attached.
package toaster

type Kind string

const (
	KindInfo  Kind = "info"
	KindWarn  Kind = "warn"
	KindError Kind = "error"
)

// NoID marks a toast that was never assigned an id by the queue.
const NoID = -1

// DefaultSeconds is how long a toast stays when the producer has no opinion.
const DefaultSeconds = 5

type Toast struct {
	ID       int    `json:"id"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
	HasTimer bool   `json:"has_timer"`
}

// Valid reports whether the toast carries a queue-assigned id.
func (t Toast) Valid() bool {
	return t.ID >= 0
}

// State is the toaster slice of the client store.
type State struct {
	Items  []Toast `json:"items"`
	NextID int     `json:"next_id"`
}

// Push appends a toast and assigns it the next id. Ids start at 0 and are
// never reused.
func (s *State) Push(kind Kind, message string, duration int) {
	s.Items = append(s.Items, Toast{
		ID:       s.NextID,
		Kind:     kind,
		Message:  message,
		Duration: duration,
	})
	s.NextID++
}

func (s *State) find(id int) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// SetTimer records whether a timer is attached. Unknown ids are ignored.
func (s *State) SetTimer(id int, active bool) {
	if i := s.find(id); i >= 0 {
		s.Items[i].HasTimer = active
	}
}

// Age takes one second off the toast. Unknown ids are ignored.
func (s *State) Age(id int) {
	if i := s.find(id); i >= 0 {
		s.Items[i].Duration--
	}
}

// Dismiss removes every toast with the given id.
func (s *State) Dismiss(id int) {
	kept := s.Items[:0]
	for _, t := range s.Items {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	clear(s.Items[len(kept):])
	s.Items = kept
}

// Toasts returns a copy of the queue in display order.
func (s *State) Toasts() []Toast {
	out := make([]Toast, len(s.Items))
	copy(out, s.Items)
	return out
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Items = s.Toasts()
	return s
}

// Queue is the locked view of State the Driver works through. The client
// store implements it.
type Queue interface {
	Push(kind Kind, message string, duration int)
	SetTimer(id int, active bool)
	Age(id int)
	Dismiss(id int)
	Toasts() []Toast
}
