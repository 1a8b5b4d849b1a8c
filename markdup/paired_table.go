package markdup

import "github.com/grailbio/hts/sam"

// pairedEntry is the best-so-far full pair at a pairKey (spec
// component C7). left/right mirror the pairKey's own left/right
// halves: left is whichever mate was parked first in the pending-mate
// table, right is the one whose arrival completed the match.
type pairedEntry struct {
	sumBaseQual  int
	leftOrdinal  uint32
	rightOrdinal uint32
	left         *sam.Record
	right        *sam.Record
}

func (e *pairedEntry) firstOrdinal() uint32 {
	if e.leftOrdinal < e.rightOrdinal {
		return e.leftOrdinal
	}
	return e.rightOrdinal
}

// pairedTable is C7: a map from pairKey to the best full pair seen so
// far at that key.
type pairedTable struct {
	entries map[pairKey]*pairedEntry
}

func newPairedTable() *pairedTable {
	return &pairedTable{entries: make(map[pairKey]*pairedEntry)}
}

func (t *pairedTable) len() int { return len(t.entries) }

// insert resolves a newly completed pair against any existing pair at
// the same key. Higher combined sumBaseQual wins; ties are broken by
// the lower of the two pairs' first-seen (parked) ordinal. The losing
// pair contributes both of its ordinals to e's duplicate index and
// releases both handles.
func (t *pairedTable) insert(e *engine, key pairKey, incoming *pairedEntry) {
	existing, ok := t.entries[key]
	if !ok {
		t.entries[key] = incoming
		return
	}
	incomingWins := incoming.sumBaseQual > existing.sumBaseQual ||
		(incoming.sumBaseQual == existing.sumBaseQual && incoming.firstOrdinal() < existing.firstOrdinal())

	loser, winner := existing, incoming
	if !incomingWins {
		loser, winner = incoming, existing
	}
	e.markDuplicate(key.left.libraryID, loser.leftOrdinal, loser.left)
	e.markDuplicate(key.left.libraryID, loser.rightOrdinal, loser.right)
	t.entries[key] = winner
}

// drainBefore removes and returns every pair whose right key sorts
// strictly before cleanup. The right half is the mate whose arrival
// completed the pair, so a duplicate pair at the same key can only be
// completed by a later record with that same right fingerprint; once
// the right key is behind cleanup no such record can still arrive.
// The left key alone is not enough: it is passed long before a
// duplicate pair's right mate shows up.
func (t *pairedTable) drainBefore(cleanup fingerprintKey) []*pairedEntry {
	var drained []*pairedEntry
	for key, entry := range t.entries {
		if key.right.less(cleanup) {
			drained = append(drained, entry)
			delete(t.entries, key)
		}
	}
	return drained
}
