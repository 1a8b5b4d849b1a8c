package markdup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairedTableHigherCombinedQualityWins(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)

	left := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}
	right := fingerprintKey{referenceID: 0, orient: orientReverse, anchorPos: 250}
	key := pairKey{left: left, right: right}

	l1, r1 := newTestRecord(h, testRecordOpts{ordinal: 0}), newTestRecord(h, testRecordOpts{ordinal: 1})
	l2, r2 := newTestRecord(h, testRecordOpts{ordinal: 2}), newTestRecord(h, testRecordOpts{ordinal: 3})

	e.pairs.insert(e, key, &pairedEntry{sumBaseQual: 100, leftOrdinal: 0, rightOrdinal: 1, left: l1, right: r1})
	e.pairs.insert(e, key, &pairedEntry{sumBaseQual: 200, leftOrdinal: 2, rightOrdinal: 3, left: l2, right: r2})

	assert.Equal(t, 1, e.pairs.len())
	e.dupIndex.finish()
	assert.True(t, e.dupIndex.isNextDuplicate(0))
	assert.True(t, e.dupIndex.isNextDuplicate(1))
	assert.False(t, e.dupIndex.isNextDuplicate(2))
}

func TestPairedTableDrainBeforeUsesRightKey(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)

	early := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}
	earlyRight := fingerprintKey{referenceID: 0, orient: orientReverse, anchorPos: 200}
	late := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 9000}
	lateRight := fingerprintKey{referenceID: 0, orient: orientReverse, anchorPos: 9200}

	l, r := newTestRecord(h, testRecordOpts{ordinal: 0}), newTestRecord(h, testRecordOpts{ordinal: 1})
	e.pairs.insert(e, pairKey{left: early, right: earlyRight}, &pairedEntry{leftOrdinal: 0, rightOrdinal: 1, left: l, right: r})

	l2, r2 := newTestRecord(h, testRecordOpts{ordinal: 2}), newTestRecord(h, testRecordOpts{ordinal: 3})
	e.pairs.insert(e, pairKey{left: late, right: lateRight}, &pairedEntry{leftOrdinal: 2, rightOrdinal: 3, left: l2, right: r2})

	cleanup := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 1000}
	drained := e.pairs.drainBefore(cleanup)
	assert.Len(t, drained, 1)
	assert.Equal(t, uint32(0), drained[0].leftOrdinal)
	assert.Equal(t, 1, e.pairs.len())
}
