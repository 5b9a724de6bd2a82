package view

import "sync"

// State is the controller's position in its two-state cycle.
type State int

const (
	// Idle shows the last rendered artifact.
	Idle State = iota
	// Regenerating is computing the artifact for a new selection.
	Regenerating
)

func (s State) String() string {
	if s == Regenerating {
		return "regenerating"
	}
	return "idle"
}

// Listener receives every artifact that replaces the displayed one.
type Listener func(Artifact)

// Controller holds the displayed artifact of one view session and swaps it
// whenever the selection changes. Select runs synchronously; when callers
// race, the newest selection wins and older results are dropped.
type Controller struct {
	gen *Generator

	mu        sync.Mutex
	state     State
	seq       uint64
	current   Artifact
	listeners []subscriber
	nextID    int
}

type subscriber struct {
	id int
	fn Listener
}

// NewController renders the initial selection and starts Idle.
func NewController(gen *Generator, initial Selection) *Controller {
	c := &Controller{gen: gen}
	c.current = gen.Regenerate(initial)
	return c
}

// Subscribe registers fn and returns a function that removes it. Listeners
// are notified in subscription order.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.listeners {
			if s.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Select regenerates for sel, replaces the displayed artifact and notifies
// listeners. It returns the artifact it computed, even when a newer call
// superseded it.
func (c *Controller) Select(sel Selection) Artifact {
	c.mu.Lock()
	c.seq++
	mine := c.seq
	c.state = Regenerating
	c.mu.Unlock()

	art := c.gen.Regenerate(sel)

	c.mu.Lock()
	if mine != c.seq {
		c.mu.Unlock()
		return art
	}
	c.current = art
	c.state = Idle
	listeners := make([]Listener, len(c.listeners))
	for i, s := range c.listeners {
		listeners[i] = s.fn
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(art)
	}
	return art
}

// Update applies fn to the current selection and selects the result.
func (c *Controller) Update(fn func(Selection) Selection) Artifact {
	return c.Select(fn(c.Current().Selection))
}

// Current returns the displayed artifact.
func (c *Controller) Current() Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generator returns the generator the controller renders with.
func (c *Controller) Generator() *Generator {
	return c.gen
}
