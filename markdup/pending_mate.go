package markdup

import (
	"github.com/dgryski/go-farm"
	"github.com/grailbio/hts/sam"
)

// pendingMateEntry is one mapped, paired record parked while it waits
// for its mate to arrive later in the stream (spec component C6).
type pendingMateEntry struct {
	ordinal      uint32
	sumBaseQual  int // this record's own contribution; the mate's is added on match
	record       *sam.Record
	key          fingerprintKey // this record's own fingerprint, needed to build the pairKey on match
	nameHash     uint64
}

func packPos(referenceID int32, pos int) uint64 {
	return uint64(uint32(referenceID))<<32 | uint64(uint32(pos))
}

// pendingMateTable is C6: a multimap from a mate's expected packed
// coordinate to every record still waiting for that mate to arrive.
// Multiple records can legitimately park under the same key (distinct
// read pairs whose mates happen to share a start coordinate), so
// lookups scan the bucket and disambiguate by QNAME.
type pendingMateTable struct {
	buckets map[uint64][]*pendingMateEntry
}

func newPendingMateTable() *pendingMateTable {
	return &pendingMateTable{buckets: make(map[uint64][]*pendingMateEntry)}
}

func (t *pendingMateTable) len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}

// park stores record, which has not yet seen its mate, under key
// mateReferenceID/matePos (the coordinate the mate is expected at).
func (t *pendingMateTable) park(mateReferenceID int32, matePos int, entry *pendingMateEntry) {
	key := packPos(mateReferenceID, matePos)
	t.buckets[key] = append(t.buckets[key], entry)
}

// take scans the bucket at referenceID/pos for an entry whose record
// name matches name, removing and returning it. The farm hash of name
// is compared before falling back to a byte-wise name comparison, to
// keep the common case (no collision) cheap.
func (t *pendingMateTable) take(referenceID int32, pos int, name string) *pendingMateEntry {
	key := packPos(referenceID, pos)
	bucket := t.buckets[key]
	if len(bucket) == 0 {
		return nil
	}
	h := farm.Hash64([]byte(name))
	for i, entry := range bucket {
		if entry.nameHash != h || entry.record.Name != name {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket = bucket[:len(bucket)-1]
		if len(bucket) == 0 {
			delete(t.buckets, key)
		} else {
			t.buckets[key] = bucket
		}
		return entry
	}
	return nil
}

// drainBefore removes and returns every entry parked under a bucket
// key that sorts strictly before cleanup. The bucket key is the
// coordinate the entry's mate was expected to arrive at, not the
// entry's own anchor: a record parked here is only safe to give up on
// once the sweep has passed the point its mate would have had to
// appear at, not merely once it has passed the record's own position.
// A record whose mate never arrives (missing mate, or mate beyond the
// drained window) is delivered as a non-duplicate: pairing evidence
// that never materializes cannot make it a duplicate.
func (t *pendingMateTable) drainBefore(cleanup fingerprintKey) []*pendingMateEntry {
	var drained []*pendingMateEntry
	for posKey, bucket := range t.buckets {
		if !bucketKeyLess(posKey, cleanup) {
			continue
		}
		drained = append(drained, bucket...)
		delete(t.buckets, posKey)
	}
	return drained
}

// bucketKeyLess reports whether the packed (referenceID, pos) bucket
// key sorts strictly before cleanup, using the same referenceID-then-
// position order as fingerprintKey.less.
func bucketKeyLess(packed uint64, cleanup fingerprintKey) bool {
	referenceID := int32(packed >> 32)
	pos := int32(packed & 0xffffffff)
	if referenceID != cleanup.referenceID {
		return refIDLess(referenceID, cleanup.referenceID)
	}
	return pos < cleanup.anchorPos
}
