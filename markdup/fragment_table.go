package markdup

import "github.com/grailbio/hts/sam"

// fragmentEntry is the best-so-far single-end candidate at a
// fingerprint (spec component C5). record is nil when the entry only
// records that a true pair's mate occupies this anchor (§4.3): such
// an entry never loses its slot to a singleton, and never needs a
// handle of its own since the actual record is owned by the
// pending-mate or paired table.
type fragmentEntry struct {
	sumBaseQual int
	ordinal     uint32
	record      *sam.Record
	pairedFlag  bool
}

// fragmentTable is C5: a hash map from fingerprint to the best
// candidate seen at that fingerprint so far. Entries are not kept in
// key order; drainBefore returns drained entries in no defined order.
type fragmentTable struct {
	entries map[fingerprintKey]*fragmentEntry
}

func newFragmentTable() *fragmentTable {
	return &fragmentTable{entries: make(map[fingerprintKey]*fragmentEntry)}
}

func (t *fragmentTable) len() int { return len(t.entries) }

// insert places a candidate at key, resolving any collision per the
// §4.3 tie-break rule: a paired candidate always beats an unpaired
// one regardless of quality; between two singletons, the higher
// sumBaseQual wins, ties broken by lower ordinal. The loser's ordinal
// is appended to e's duplicate index and its handle (if any)
// released. Between two pair anchors the earlier one is kept and
// nothing is marked, since C7 decides between full pairs.
//
// record is nil when this insertion is bookkeeping for a to-be-paired
// read's own anchor (§4.3's "incoming record is paired" case) rather
// than a genuine singleton candidate.
func (t *fragmentTable) insert(e *engine, key fingerprintKey, ordinal uint32, sumQual int, record *sam.Record, pairedFlag bool) {
	incoming := &fragmentEntry{sumBaseQual: sumQual, ordinal: ordinal, record: record, pairedFlag: pairedFlag}

	existing, ok := t.entries[key]
	if !ok {
		t.entries[key] = incoming
		return
	}

	if existing.pairedFlag && !incoming.pairedFlag {
		// A paired anchor always beats an incoming singleton.
		e.markDuplicate(key.libraryID, incoming.ordinal, incoming.record)
		return
	}
	if !existing.pairedFlag && incoming.pairedFlag {
		// The incoming paired anchor always beats a stored singleton.
		e.markDuplicate(key.libraryID, existing.ordinal, existing.record)
		t.entries[key] = incoming
		return
	}
	if existing.pairedFlag && incoming.pairedFlag {
		// Both are pair anchors; C7 is authoritative for full-pair
		// comparisons, so keep the earlier one as representative.
		if incoming.ordinal < existing.ordinal {
			t.entries[key] = incoming
		}
		return
	}

	// Both are genuine singletons: higher score wins, ties broken by
	// earlier ordinal.
	if incoming.sumBaseQual > existing.sumBaseQual ||
		(incoming.sumBaseQual == existing.sumBaseQual && incoming.ordinal < existing.ordinal) {
		e.markDuplicate(key.libraryID, existing.ordinal, existing.record)
		t.entries[key] = incoming
		return
	}
	e.markDuplicate(key.libraryID, incoming.ordinal, incoming.record)
}

// drainBefore removes and returns every entry whose key is strictly
// less than cleanup, for delivery as non-duplicates by the sweep
// controller.
func (t *fragmentTable) drainBefore(cleanup fingerprintKey) []*fragmentEntry {
	var drained []*fragmentEntry
	for key, entry := range t.entries {
		if key.less(cleanup) {
			drained = append(drained, entry)
			delete(t.entries, key)
		}
	}
	return drained
}
