package ssaback

// This file defines the working set the spiller maintains: the values
// modelled as residing in registers at a program point, with the next-use
// distance attached to each.

import "sort"

type wsEntry struct {
	v    *Value
	dist int32
}

// A workingSet is a bounded multiset-free sequence of (value, distance)
// pairs.  Insertion order carries no meaning between operations; the set
// is sorted by distance only when an eviction is pending.  Its length
// never exceeds the register count of the class being spilled; the spiller
// asserts that.
//
// The capacity is small (at most the class cardinality, realistically
// <= 32), so a flat slice with linear scans beats any map.
type workingSet struct {
	cap  int
	ents []wsEntry
}

func newWorkingSet(cap int) *workingSet {
	return &workingSet{cap: cap, ents: make([]wsEntry, 0, cap)}
}

// clone returns an independent copy of ws.
func (ws *workingSet) clone() *workingSet {
	c := &workingSet{cap: ws.cap, ents: make([]wsEntry, len(ws.ents), ws.cap)}
	copy(c.ents, ws.ents)
	return c
}

func (ws *workingSet) len() int { return len(ws.ents) }

// contains reports whether v is in the set.
func (ws *workingSet) contains(v *Value) bool {
	for i := range ws.ents {
		if ws.ents[i].v == v {
			return true
		}
	}
	return false
}

// add inserts v with the given distance.  v must not be present already.
func (ws *workingSet) add(v *Value, dist int32) {
	ws.ents = append(ws.ents, wsEntry{v, dist})
}

// remove deletes v if present and reports whether it was.
func (ws *workingSet) remove(v *Value) bool {
	for i := range ws.ents {
		if ws.ents[i].v == v {
			copy(ws.ents[i:], ws.ents[i+1:])
			ws.ents = ws.ents[:len(ws.ents)-1]
			return true
		}
	}
	return false
}

// setDistance updates the recorded distance of v.
func (ws *workingSet) setDistance(v *Value, dist int32) {
	for i := range ws.ents {
		if ws.ents[i].v == v {
			ws.ents[i].dist = dist
			return
		}
	}
}

// sortByDistance orders the entries by ascending distance.  The sort is
// stable, so entries sharing a sentinel distance keep their relative
// order.
func (ws *workingSet) sortByDistance() {
	sort.SliceStable(ws.ents, func(i, j int) bool {
		return ws.ents[i].dist < ws.ents[j].dist
	})
}

// evictLast removes and returns the n entries with the greatest distances.
// The set must already be sorted.
func (ws *workingSet) evictLast(n int) []wsEntry {
	cut := len(ws.ents) - n
	evicted := append([]wsEntry(nil), ws.ents[cut:]...)
	ws.ents = ws.ents[:cut]
	return evicted
}

// values appends the member values to dst and returns it.
func (ws *workingSet) values(dst []*Value) []*Value {
	for i := range ws.ents {
		dst = append(dst, ws.ents[i].v)
	}
	return dst
}
