package pattern

import (
	"sort"
)

// Index maps a term key to the table of patterns containing that term.
type Index struct {
	tables map[string]*Table
}

// Table holds, for one term key, the patterns reachable from it arranged by
// how many terms precede and follow that term. Each cell groups patterns by
// shape.
type Table struct {
	cells map[Coord]map[string][]*Pattern
}

type Coord struct {
	Before, After int
}

func NewIndex() *Index {
	return &Index{tables: map[string]*Table{}}
}

func newTable() *Table {
	return &Table{cells: map[Coord]map[string][]*Pattern{}}
}

// Add records p under the key of its i-th term.
func (ix *Index) Add(i int, p *Pattern) {
	key := p.Terms[i].Key()
	t, ok := ix.tables[key]
	if !ok {
		t = newTable()
		ix.tables[key] = t
	}
	c := Coord{Before: i, After: len(p.Terms) - 1 - i}
	cell, ok := t.cells[c]
	if !ok {
		cell = map[string][]*Pattern{}
		t.cells[c] = cell
	}
	cell[p.Shape] = append(cell[p.Shape], p)
}

// Insert makes p reachable from every one of its terms.
func (ix *Index) Insert(p *Pattern) {
	for i := range p.Terms {
		ix.Add(i, p)
	}
}

// Lookup returns the table for a term key, or nil.
func (ix *Index) Lookup(termKey string) *Table {
	return ix.tables[termKey]
}

// Concat returns a new index holding ix merged with other. Where both have
// patterns of one shape at the same coordinate, other's entry replaces ix's.
func (ix *Index) Concat(other *Index) *Index {
	out := NewIndex()
	for _, src := range []*Index{ix, other} {
		if src == nil {
			continue
		}
		for key, t := range src.tables {
			dst, ok := out.tables[key]
			if !ok {
				dst = newTable()
				out.tables[key] = dst
			}
			for c, cell := range t.cells {
				dcell, ok := dst.cells[c]
				if !ok {
					dcell = map[string][]*Pattern{}
					dst.cells[c] = dcell
				}
				for shape, ps := range cell {
					dcell[shape] = append([]*Pattern(nil), ps...)
				}
			}
		}
	}
	return out
}

// Keys lists the distinct pattern keys in the index, sorted.
func (ix *Index) Keys() []string {
	seen := map[string]bool{}
	for _, t := range ix.tables {
		for _, cell := range t.cells {
			for _, ps := range cell {
				for _, p := range ps {
					seen[p.Key] = true
				}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *Table) filter(keep func(Coord) bool) *Table {
	out := newTable()
	if t == nil {
		return out
	}
	for c, cell := range t.cells {
		if keep(c) {
			out.cells[c] = cell
		}
	}
	return out
}

// SliceBefore keeps coordinates with at most n terms before the focus.
func (t *Table) SliceBefore(n int) *Table {
	return t.filter(func(c Coord) bool { return c.Before <= n })
}

// SliceAfter keeps coordinates with at most n terms after the focus.
func (t *Table) SliceAfter(n int) *Table {
	return t.filter(func(c Coord) bool { return c.After <= n })
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.cells)
}

// Entry is one shape at one coordinate.
type Entry struct {
	Coord
	Shape    string
	Patterns []*Pattern
}

// Entries lists the table's shapes, largest window first; equal windows are
// ordered by earlier start (more terms before the focus), then by shape.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	var out []Entry
	for c, cell := range t.cells {
		for shape, ps := range cell {
			out = append(out, Entry{Coord: c, Shape: shape, Patterns: ps})
		}
	}
	SortEntries(out)
	return out
}

// SortEntries orders entries gathered from several tables the same way
// Entries does.
func SortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if sa, sb := a.Before+a.After, b.Before+b.After; sa != sb {
			return sa > sb
		}
		if a.Before != b.Before {
			return a.Before > b.Before
		}
		return a.Shape < b.Shape
	})
}
