package markdup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentTableHigherQualityWins(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)
	key := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}

	r1 := newTestRecord(h, testRecordOpts{ordinal: 0})
	r2 := newTestRecord(h, testRecordOpts{ordinal: 1})
	e.fragments.insert(e, key, 0, 100, r1, false)
	e.fragments.insert(e, key, 1, 200, r2, false)

	assert.Equal(t, 1, e.fragments.len())
	assert.Equal(t, 1, e.dupIndex.len())
	e.dupIndex.finish()
	assert.True(t, e.dupIndex.isNextDuplicate(0))
	assert.Equal(t, r2, e.fragments.entries[key].record)
}

func TestFragmentTableTieBrokenByOrdinal(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)
	key := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}

	r1 := newTestRecord(h, testRecordOpts{ordinal: 0})
	r2 := newTestRecord(h, testRecordOpts{ordinal: 1})
	e.fragments.insert(e, key, 0, 100, r1, false)
	e.fragments.insert(e, key, 1, 100, r2, false)

	assert.Equal(t, r1, e.fragments.entries[key].record)
	e.dupIndex.finish()
	assert.True(t, e.dupIndex.isNextDuplicate(1))
}

func TestFragmentTablePairedBeatsSingletonRegardlessOfQuality(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)
	key := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}

	singleton := newTestRecord(h, testRecordOpts{ordinal: 0})
	e.fragments.insert(e, key, 0, 1000, singleton, false) // very high score, but unpaired
	e.fragments.insert(e, key, 1, 1, nil, true)            // paired anchor, no score, no handle

	assert.Nil(t, e.fragments.entries[key].record)
	assert.True(t, e.fragments.entries[key].pairedFlag)
	e.dupIndex.finish()
	assert.True(t, e.dupIndex.isNextDuplicate(0))
}

func TestFragmentTableDrainBeforeReturnsEarlierKeysOnly(t *testing.T) {
	h := testHeader("lib1")
	e := testEngine(h)
	early := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}
	late := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 5000}

	r1 := newTestRecord(h, testRecordOpts{ordinal: 0})
	r2 := newTestRecord(h, testRecordOpts{ordinal: 1})
	e.fragments.insert(e, early, 0, 100, r1, false)
	e.fragments.insert(e, late, 1, 100, r2, false)

	cleanup := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 1000}
	drained := e.fragments.drainBefore(cleanup)
	assert.Len(t, drained, 1)
	assert.Equal(t, r1, drained[0].record)
	assert.Equal(t, 1, e.fragments.len())
}
