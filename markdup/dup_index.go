package markdup

import "sort"

// dupIndex accumulates the 0-based input ordinals of records that pass
// 1 determined to be duplicates (spec component C9). It is write-only
// during pass 1, sorted once at EOF, and then walked in lockstep with
// the input during pass 2.
type dupIndex struct {
	ordinals []uint32
	seen     map[uint32]bool
	sorted   bool
	cursor   int
}

func newDupIndex() *dupIndex {
	return &dupIndex{seen: make(map[uint32]bool)}
}

// add appends ordinal to the index. Adding the same ordinal twice is a
// bug (spec invariant: "duplicates forbidden").
func (d *dupIndex) add(ordinal uint32) {
	if d.seen[ordinal] {
		panic("markdup: ordinal added to duplicate index twice")
	}
	d.seen[ordinal] = true
	d.ordinals = append(d.ordinals, ordinal)
}

// len returns the number of duplicate ordinals recorded.
func (d *dupIndex) len() int {
	return len(d.ordinals)
}

// finish sorts the index ascending. Must be called once, after pass 1
// completes and before any call to isNextDuplicate.
func (d *dupIndex) finish() {
	sort.Slice(d.ordinals, func(i, j int) bool { return d.ordinals[i] < d.ordinals[j] })
	d.sorted = true
	d.cursor = 0
}

// isNextDuplicate reports whether ordinal is the next pending value in
// the sorted index, consuming it if so. Pass 2 calls this once per
// input record, in ascending ordinal order.
func (d *dupIndex) isNextDuplicate(ordinal uint32) bool {
	if !d.sorted {
		panic("markdup: isNextDuplicate called before finish")
	}
	if d.cursor >= len(d.ordinals) {
		return false
	}
	if d.ordinals[d.cursor] == ordinal {
		d.cursor++
		return true
	}
	return false
}
