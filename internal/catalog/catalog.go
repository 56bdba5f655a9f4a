// Package catalog holds the violation catalog: the static mapping from
// violation identifiers to legal code, justification, and remediation text,
// plus the checklist groupings and the seed tag vocabulary.
package catalog

import "sync"

// Entry is one catalog record for a violation identifier.
type Entry struct {
	Code       string `yaml:"code" json:"code"`
	Title      string `yaml:"title" json:"title"`
	Condition  string `yaml:"condition" json:"condition"`
	Importance string `yaml:"importance" json:"importance"`
	Action     string `yaml:"action" json:"action"`
}

// ChecklistItem is one selectable violation in the form checklist.
type ChecklistItem struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// ChecklistGroup is a named column of checklist items.
type ChecklistGroup struct {
	Name  string          `yaml:"name" json:"name"`
	Items []ChecklistItem `yaml:"items" json:"items"`
}

// Catalog is a concurrency-safe view over the violation database. The
// built-in data can be overlaid with entries from a YAML file; the watcher
// swaps the overlay in atomically.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns a catalog seeded with the built-in violation database.
func New() *Catalog {
	entries := make(map[string]Entry, len(builtinEntries))
	for id, e := range builtinEntries {
		entries[id] = e
	}
	return &Catalog{entries: entries}
}

// Lookup resolves an identifier. A missing id yields a zero Entry and
// ok=false; callers degrade gracefully rather than treating it as an error.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Merge overlays the given entries on top of the current set. Existing ids
// are replaced, unknown ids are added; nothing is ever removed.
func (c *Catalog) Merge(overrides map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range overrides {
		c.entries[id] = e
	}
}

// Entries returns a copy of the full violation database.
func (c *Catalog) Entries() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for id, e := range c.entries {
		out[id] = e
	}
	return out
}

// Len returns the number of known entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Checklist returns the grouped checklist presented on the form.
func Checklist() []ChecklistGroup {
	return builtinChecklist
}

// Areas returns the areas-inspected options.
func Areas() []string {
	return builtinAreas
}

// InitialTags returns the seed vocabulary for a new inspection session.
func InitialTags() []string {
	out := make([]string, len(builtinTags))
	copy(out, builtinTags)
	return out
}
