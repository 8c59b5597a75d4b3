package appshell

import (
	"net/url"
	"strings"
	"sync"
)

// Location is the navigation position activation rules are evaluated
// against. It deliberately carries only the parts of a URL that influence
// activation; scheme and host belong to the surrounding host application.
type Location struct {
	// Path is the absolute navigation path, e.g. "/settings/profile".
	Path string `json:"path"`

	// RawQuery is the unparsed query string without the leading "?".
	RawQuery string `json:"rawQuery,omitempty"`

	// Fragment is the fragment identifier without the leading "#".
	Fragment string `json:"fragment,omitempty"`
}

// ParseLocation parses a path, path?query or path?query#fragment string
// into a Location. Invalid input degrades to a Location whose Path is the
// raw string, so rule evaluation stays total.
func ParseLocation(raw string) Location {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{Path: raw}
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Location{Path: path, RawQuery: u.RawQuery, Fragment: u.Fragment}
}

// String renders the location back to path[?query][#fragment] form.
func (l Location) String() string {
	var b strings.Builder
	if l.Path == "" {
		b.WriteString("/")
	} else {
		b.WriteString(l.Path)
	}
	if l.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(l.RawQuery)
	}
	if l.Fragment != "" {
		b.WriteString("#")
		b.WriteString(l.Fragment)
	}
	return b.String()
}

// Query parses RawQuery into url.Values. Malformed pairs are dropped, never
// surfaced, matching net/url behavior.
func (l Location) Query() url.Values {
	v, _ := url.ParseQuery(l.RawQuery)
	return v
}

// Navigator abstracts the host's navigation source. The orchestrator never
// reads or writes navigation state directly; it only consumes change
// notifications from an injected Navigator while started.
//
// Implementations must deliver notifications sequentially per subscriber;
// the orchestrator serializes reconciliation itself, so notification bursts
// are safe and will coalesce.
type Navigator interface {
	// Current returns the present location.
	Current() Location

	// Subscribe registers fn to be called on every location change and
	// returns a cancel function that detaches it. Cancel must be
	// idempotent.
	Subscribe(fn func(Location)) (cancel func())
}

// ManualNavigator is a Navigator driven explicitly through Goto. It is the
// reference implementation for hosts that own their routing, and the
// workhorse for tests.
type ManualNavigator struct {
	mu          sync.Mutex
	current     Location
	subscribers map[int]func(Location)
	nextID      int
}

// NewManualNavigator creates a ManualNavigator positioned at start.
func NewManualNavigator(start Location) *ManualNavigator {
	return &ManualNavigator{
		current:     start,
		subscribers: make(map[int]func(Location)),
	}
}

// Current returns the last location passed to Goto (or the start location).
func (n *ManualNavigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Goto records loc as current and notifies subscribers synchronously, in
// subscription order.
func (n *ManualNavigator) Goto(loc Location) {
	n.mu.Lock()
	n.current = loc
	ids := make([]int, 0, len(n.subscribers))
	for id := range n.subscribers {
		ids = append(ids, id)
	}
	// map iteration order is random; deliver in subscription order
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	fns := make([]func(Location), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subscribers[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}

// GotoPath is shorthand for Goto(ParseLocation(path)).
func (n *ManualNavigator) GotoPath(path string) {
	n.Goto(ParseLocation(path))
}

// Subscribe implements Navigator.
func (n *ManualNavigator) Subscribe(fn func(Location)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subscribers, id)
		})
	}
}
