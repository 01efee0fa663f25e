// Package catalog holds the read-only list of events the dashboard
// administers. Events are not served by the admin API, so they are
// loaded from a YAML or JSON file.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"event-admin/models"

	"gopkg.in/yaml.v3"
)

type file struct {
	Events []models.Event `json:"events" yaml:"events"`
}

type Catalog struct {
	events []models.Event
}

// New builds a catalog from events, ordered by start date.
func New(events []models.Event) *Catalog {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate.Time)
	})
	return &Catalog{events: sorted}
}

// Load reads the catalog at path. An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a catalog document in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Catalog, error) {
	var doc file

	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("catalog: decode json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("catalog: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("catalog: unsupported format %q", format)
	}

	seen := make(map[string]struct{}, len(doc.Events))
	for i, event := range doc.Events {
		if event.ID == "" {
			return nil, fmt.Errorf("catalog: event %d has no id", i)
		}
		if _, dup := seen[event.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate event id %q", event.ID)
		}
		seen[event.ID] = struct{}{}
	}
	return New(doc.Events), nil
}

func (c *Catalog) Events() []models.Event {
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Catalog) Len() int {
	return len(c.events)
}

// Find matches an event by id or slug.
func (c *Catalog) Find(idOrSlug string) (models.Event, bool) {
	for _, event := range c.events {
		if event.ID == idOrSlug || (event.Slug != "" && event.Slug == idOrSlug) {
			return event, true
		}
	}
	return models.Event{}, false
}

// First is the earliest event, used when no event is selected.
func (c *Catalog) First() (models.Event, bool) {
	if len(c.events) == 0 {
		return models.Event{}, false
	}
	return c.events[0], true
}
