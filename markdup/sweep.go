package markdup

// sweepController is C8: it decides when entries in the fragment,
// pending-mate and paired tables have fallen far enough behind the
// input's current coordinate that no later record could possibly
// collide with them, and drains those entries as non-duplicates.
//
// The input is coordinate-sorted by leftmost aligned position, not by
// unclipped 5' anchor, so a forward-strand anchor can trail the
// aligned position (soft clip removed from the front) while a
// reverse-strand anchor can lead it (alignment span plus trailing
// clip added to the end). watermark tracks the largest span observed
// so far and is used as a safety margin: an entry is only ever
// drained once the input has advanced beyond it.
type sweepController struct {
	watermark     int
	haveWatermark bool
	lastRef       int32
	oneChrom      bool
}

func newSweepController(oneChrom bool) *sweepController {
	return &sweepController{lastRef: -1, oneChrom: oneChrom}
}

// observe folds record's alignment span into the running watermark.
// Call once per mapped record, before computing its cleanup key.
func (s *sweepController) observe(referenceID int32, pos int, span int) {
	if !s.haveWatermark || span > s.watermark {
		s.watermark = span
		s.haveWatermark = true
	}
	s.lastRef = referenceID
}

// cleanupKey returns the fingerprint key below which every table
// entry is guaranteed safe to drain, given the input has advanced to
// referenceID/pos.
func (s *sweepController) cleanupKey(referenceID int32, pos int) fingerprintKey {
	margin := s.watermark
	if margin < 1 {
		margin = 1
	}
	safePos := pos - margin
	return fingerprintKey{
		libraryID:   0,
		referenceID: referenceID,
		orient:      orientForward,
		anchorPos:   int32(safePos),
	}
}

// advanceSweep drains every table entry that cleanupKey(referenceID, pos)
// proves safe. It is called before a mapped record is classified, so
// that the record's own eventual insertion can never race a drain of
// its own key.
func (e *engine) advanceSweep(referenceID int32, pos int) {
	if e.sweep.oneChrom {
		referenceID = 0
	}
	if referenceID == e.sweep.lastRef && !e.sweep.haveWatermark {
		return
	}
	cleanup := e.sweep.cleanupKey(referenceID, pos)
	e.drainFragmentsBefore(cleanup)
	e.drainPendingMatesBefore(cleanup)
	e.drainPairsBefore(cleanup)
}

// drainAllTables flushes every remaining table entry, unconditionally. It
// is called once at end of input; afterward all three tables must be
// empty, since top sorts after every possible fingerprint.
func (e *engine) drainAllTables() {
	top := fingerprintKey{referenceID: 1<<31 - 1, anchorPos: 1<<31 - 1, orient: orientReverse, libraryID: 255}
	e.drainFragmentsBefore(top)
	e.drainPendingMatesBefore(top)
	e.drainPairsBefore(top)
	if e.fragments.len() != 0 || e.pendingMates.len() != 0 || e.pairs.len() != 0 {
		panic("markdup: tables not empty after final drain")
	}
}

func (e *engine) drainFragmentsBefore(cleanup fingerprintKey) {
	for _, entry := range e.fragments.drainBefore(cleanup) {
		if entry.record == nil {
			continue // pure pair-anchor bookkeeping, nothing to deliver
		}
		e.deliverNonDuplicate(entry.record)
	}
}

func (e *engine) drainPendingMatesBefore(cleanup fingerprintKey) {
	for _, entry := range e.pendingMates.drainBefore(cleanup) {
		e.reportMissingMate(entry.record)
		e.deliverNonDuplicate(entry.record)
	}
}

func (e *engine) drainPairsBefore(cleanup fingerprintKey) {
	for _, entry := range e.pairs.drainBefore(cleanup) {
		e.deliverNonDuplicate(entry.left)
		e.deliverNonDuplicate(entry.right)
	}
}
