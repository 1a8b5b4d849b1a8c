package markdup

import (
	"testing"

	"github.com/dgryski/go-farm"
	"github.com/stretchr/testify/assert"
)

func TestPendingMateParkAndTakeByName(t *testing.T) {
	h := testHeader("lib1")
	tbl := newPendingMateTable()

	r := newTestRecord(h, testRecordOpts{name: "read-A", ordinal: 0})
	tbl.park(0, 500, &pendingMateEntry{ordinal: 0, sumBaseQual: 42, record: r, nameHash: farm.Hash64([]byte("read-A"))})

	assert.Equal(t, 1, tbl.len())
	assert.Nil(t, tbl.take(0, 500, "read-B"), "wrong name must not match")
	assert.Equal(t, 1, tbl.len())

	got := tbl.take(0, 500, "read-A")
	assert.NotNil(t, got)
	assert.Equal(t, 42, got.sumBaseQual)
	assert.Equal(t, 0, tbl.len())
}

// TestPendingMateDrainBeforeUsesBucketKey parks r1 (own anchor past
// cleanup) under a bucket before cleanup, and r2 (own anchor before
// cleanup) under a bucket past it: only r1 is drained.
func TestPendingMateDrainBeforeUsesBucketKey(t *testing.T) {
	h := testHeader("lib1")
	tbl := newPendingMateTable()

	early := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 100}
	late := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 9000}
	r1 := newTestRecord(h, testRecordOpts{name: "a"})
	r2 := newTestRecord(h, testRecordOpts{name: "b"})
	tbl.park(0, 500, &pendingMateEntry{ordinal: 0, record: r1, key: late})
	tbl.park(0, 9000, &pendingMateEntry{ordinal: 1, record: r2, key: early})

	cleanup := fingerprintKey{referenceID: 0, orient: orientForward, anchorPos: 1000}
	drained := tbl.drainBefore(cleanup)
	assert.Len(t, drained, 1)
	assert.Equal(t, r1, drained[0].record)
	assert.Equal(t, 1, tbl.len())
}
