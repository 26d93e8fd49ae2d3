package scenario

import (
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// Catalog resolves scene-change targets. Lookup is by exact name; case and
// whitespace runs are ignored, nothing else is.
type Catalog interface {
	Lookup(name string) (*Snapshot, bool)
	Get(id string) (*Snapshot, bool)
	List() []Snapshot
}

// MemoryCatalog is a Catalog over a fixed set of snapshots.
type MemoryCatalog struct {
	snapshots []Snapshot
	byID      map[string]int
	byName    map[string]int
}

// NewMemoryCatalog indexes snaps. Later duplicates of an id or name are
// ignored; run Validate first to surface them.
func NewMemoryCatalog(snaps ...Snapshot) *MemoryCatalog {
	c := &MemoryCatalog{
		byID:   make(map[string]int, len(snaps)),
		byName: make(map[string]int, len(snaps)),
	}
	for _, s := range snaps {
		if _, dup := c.byID[s.ID]; dup {
			continue
		}
		c.snapshots = append(c.snapshots, s)
		idx := len(c.snapshots) - 1
		c.byID[s.ID] = idx
		if key := nameKey(s.Name); key != "" {
			if _, dup := c.byName[key]; !dup {
				c.byName[key] = idx
			}
		}
	}
	return c
}

func nameKey(name string) string {
	return textfilter.Fold(name)
}

// Lookup returns a copy of the snapshot named name.
func (c *MemoryCatalog) Lookup(name string) (*Snapshot, bool) {
	i, ok := c.byName[nameKey(name)]
	if !ok {
		return nil, false
	}
	return c.snapshots[i].Clone(), true
}

// Get returns a copy of the snapshot with the given id.
func (c *MemoryCatalog) Get(id string) (*Snapshot, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, false
	}
	return c.snapshots[i].Clone(), true
}

// List returns all snapshots in insertion order.
func (c *MemoryCatalog) List() []Snapshot {
	return slices.Clone(c.snapshots)
}

// Names returns every snapshot name in the catalog.
func Names(c Catalog) []string {
	all := c.List()
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
	}
	return names
}
