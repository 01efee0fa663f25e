// Package tabs tracks which one of a fixed set of views is mounted.
package tabs

import (
	"fmt"
)

type Tab string

const (
	Overview Tab = "overview"
	Types    Tab = "types"
	Tickets  Tab = "tickets"
	Payments Tab = "payments"
	Promos   Tab = "promos"
	Waitlist Tab = "waitlist"
)

// Dashboard is the tab order of the admin dashboard.
var Dashboard = []Tab{Overview, Types, Tickets, Payments, Promos, Waitlist}

// Title is the label shown in the tab bar.
func (t Tab) Title() string {
	switch t {
	case Overview:
		return "Overview"
	case Types:
		return "Ticket Types"
	case Tickets:
		return "Tickets"
	case Payments:
		return "Manual Payments"
	case Promos:
		return "Promo Codes"
	case Waitlist:
		return "Waitlist"
	}
	return string(t)
}

// Router holds exactly one active tab out of an ordered set.
type Router struct {
	tabs   []Tab
	active int
}

// New builds a router over tabs with the first one active.
func New(tabs ...Tab) (*Router, error) {
	if len(tabs) == 0 {
		return nil, fmt.Errorf("tabs: no tabs")
	}
	seen := make(map[Tab]struct{}, len(tabs))
	for _, t := range tabs {
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("tabs: duplicate tab %q", t)
		}
		seen[t] = struct{}{}
	}
	return &Router{tabs: append([]Tab(nil), tabs...)}, nil
}

func (r *Router) Active() Tab {
	return r.tabs[r.active]
}

func (r *Router) Index() int {
	return r.active
}

func (r *Router) Tabs() []Tab {
	return append([]Tab(nil), r.tabs...)
}

// Select makes t active. It reports whether the active tab changed, which
// is when the caller mounts the new view and triggers its read.
func (r *Router) Select(t Tab) (bool, error) {
	for i, candidate := range r.tabs {
		if candidate == t {
			changed := i != r.active
			r.active = i
			return changed, nil
		}
	}
	return false, fmt.Errorf("tabs: unknown tab %q", t)
}

// SelectIndex selects by zero-based position.
func (r *Router) SelectIndex(i int) (bool, error) {
	if i < 0 || i >= len(r.tabs) {
		return false, fmt.Errorf("tabs: index %d out of range", i)
	}
	return r.Select(r.tabs[i])
}

// Next moves to the following tab, wrapping around.
func (r *Router) Next() Tab {
	r.active = (r.active + 1) % len(r.tabs)
	return r.Active()
}

// Prev moves to the preceding tab, wrapping around.
func (r *Router) Prev() Tab {
	r.active = (r.active - 1 + len(r.tabs)) % len(r.tabs)
	return r.Active()
}

// Parse resolves a tab name as used in URLs and flags.
func Parse(name string) (Tab, error) {
	for _, t := range Dashboard {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("tabs: unknown tab %q", name)
}
