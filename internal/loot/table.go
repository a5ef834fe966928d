// Package loot rolls container contents from weighted loot tables.
package loot

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/selector"
)

// Entry is one weighted item with a count range.
type Entry struct {
	Item   string `yaml:"item"`
	Weight int    `yaml:"weight"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
}

// Table picks Rolls entries per roll.
type Table struct {
	Name    string
	Rolls   int
	entries *selector.Weighted[Entry]
}

// NewTable builds a table. Entries with an empty item or non-positive weight
// are skipped with a warning; a table left without entries is an error.
func NewTable(name string, rolls int, entries []Entry) (*Table, error) {
	if rolls <= 0 {
		rolls = 1
	}
	sel := selector.New[Entry](len(entries))
	for i, e := range entries {
		if e.Item == "" {
			slog.Warn("skipping loot entry without item", "table", name, "index", i)
			continue
		}
		if e.Min <= 0 {
			e.Min = 1
		}
		if e.Max < e.Min {
			e.Max = e.Min
		}
		if err := sel.Add(e.Weight, e); err != nil {
			slog.Warn("skipping loot entry", "table", name, "index", i, "item", e.Item, "error", err)
			continue
		}
	}
	if sel.Len() == 0 {
		return nil, fmt.Errorf("loot table %q: %w", name, selector.ErrEmptyCollection)
	}
	return &Table{Name: name, Rolls: rolls, entries: sel}, nil
}

// Roll draws Rolls entries and returns the resulting stacks. Picks of the
// same item are merged; stacks keep first-pick order. Tables must come from
// NewTable; Roll panics on one built any other way.
func (t *Table) Roll(rng *rand.Rand) []model.ItemStack {
	if t.entries == nil {
		panic(fmt.Errorf("loot table %q: %w", t.Name, selector.ErrEmptyCollection))
	}

	var out []model.ItemStack
	index := make(map[string]int, t.Rolls)

	for range t.Rolls {
		e, err := t.entries.Pick(rng)
		if err != nil {
			// NewTable guarantees at least one entry.
			panic(err)
		}
		count := e.Min
		if e.Max > e.Min {
			count += rng.IntN(e.Max - e.Min + 1)
		}
		if i, ok := index[e.Item]; ok {
			out[i].Count += count
			continue
		}
		index[e.Item] = len(out)
		out = append(out, model.ItemStack{Item: e.Item, Count: count})
	}
	return out
}

// Tables is a set of loot tables by name.
type Tables map[string]*Table

// Get returns the table named name, or nil.
func (ts Tables) Get(name string) *Table {
	return ts[name]
}

// Names returns table names, sorted.
func (ts Tables) Names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileTable struct {
	Rolls   int     `yaml:"rolls"`
	Entries []Entry `yaml:"entries"`
}

type file struct {
	Tables map[string]fileTable `yaml:"tables"`
}

// Parse decodes a loot document. Tables without a usable entry are skipped
// with a warning.
func Parse(data []byte) (Tables, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding loot tables: %w", err)
	}

	ts := make(Tables, len(f.Tables))
	for name, ft := range f.Tables {
		t, err := NewTable(name, ft.Rolls, ft.Entries)
		if err != nil {
			slog.Warn("skipping loot table", "table", name, "error", err)
			continue
		}
		ts[name] = t
	}
	return ts, nil
}

// LoadTables reads and parses a loot file. A missing file yields no tables.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Tables{}, nil
		}
		return nil, fmt.Errorf("reading loot tables %s: %w", path, err)
	}
	ts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing loot tables %s: %w", path, err)
	}
	slog.Info("loot tables loaded", "path", path, "tables", len(ts))
	return ts, nil
}
