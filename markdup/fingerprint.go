package markdup

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// orientation is the strand component of a fingerprint key.
type orientation uint8

const (
	orientForward orientation = iota
	orientReverse
)

// fingerprintKey is the totally ordered, comparable identity of a
// read's 5' alignment anchor: library, reference, strand, and the
// unclipped coordinate of the physical fragment end. Two records
// collide (are candidate duplicates) iff their keys are equal.
type fingerprintKey struct {
	libraryID   uint8
	referenceID int32 // -1 == unmapped, sorts last
	orient      orientation
	anchorPos   int32
}

// emptyFingerprintKey is a sentinel key: no real record ever produces
// it, since referenceID -1 is reserved for unmapped records which are
// never fingerprinted. Under less it sorts after every mapped key,
// because reference -1 sorts last.
var emptyFingerprintKey = fingerprintKey{
	referenceID: -1,
	anchorPos:   minInt32,
}

const minInt32 = -1 << 31

func (k fingerprintKey) String() string {
	return fmt.Sprintf("(lib=%d ref=%d orient=%d pos=%d)", k.libraryID, k.referenceID, k.orient, k.anchorPos)
}

// less orders fingerprints by genomic position alone (referenceID,
// then anchorPos), used to compare a table entry against the sweep
// controller's cleanup key. Library and orientation play no part:
// whether it is safe to stop waiting for more input at a locus does
// not depend on which library or strand a given entry belongs to. A
// reference of -1 sorts last among references so that, if it ever
// appeared, it would never be drained prematurely; in practice
// unmapped records never reach this key.
func (k fingerprintKey) less(other fingerprintKey) bool {
	if k.referenceID != other.referenceID {
		return refIDLess(k.referenceID, other.referenceID)
	}
	return k.anchorPos < other.anchorPos
}

func refIDLess(a, b int32) bool {
	if a == -1 {
		return false // -1 sorts last, so it is never "less" than anything
	}
	if b == -1 {
		return true
	}
	return a < b
}

// pairKey identifies a duplicate group of read pairs: the ordered
// combination of both mates' fingerprints, left being whichever mate
// was seen first in the input stream.
type pairKey struct {
	left, right fingerprintKey
}

// isReversed reports whether r is aligned to the reverse strand.
func isReversed(r *sam.Record) bool {
	return r.Flags&sam.Reverse != 0
}

// isUnmapped reports whether r has no alignment position.
func isUnmapped(r *sam.Record) bool {
	return r.Flags&sam.Unmapped != 0
}

// hasMappedMate reports whether r is paired and its mate is mapped.
func hasMappedMate(r *sam.Record) bool {
	return r.Flags&sam.Paired != 0 && r.Flags&sam.MateUnmapped == 0
}

func orientationOf(r *sam.Record) orientation {
	if isReversed(r) {
		return orientReverse
	}
	return orientForward
}

// leadingSoftClipLen and trailingSoftClipLen return the run-length of
// a leading or trailing soft clip in cig, or 0 if there is none.
func leadingSoftClipLen(cig sam.Cigar) int {
	if len(cig) == 0 || cig[0].Type() != sam.CigarSoftClipped {
		return 0
	}
	return cig[0].Len()
}

func trailingSoftClipLen(cig sam.Cigar) int {
	if len(cig) == 0 || cig[len(cig)-1].Type() != sam.CigarSoftClipped {
		return 0
	}
	return cig[len(cig)-1].Len()
}

// referenceConsumedLen sums the CIGAR op lengths that advance the
// reference coordinate (M, D, N, =, X), used to find a reverse-strand
// read's rightmost aligned position.
func referenceConsumedLen(cig sam.Cigar) int {
	n := 0
	for _, op := range cig {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarDeletion, sam.CigarSkipped, sam.CigarEqual, sam.CigarMismatch:
			n += op.Len()
		}
	}
	return n
}

// unclippedAnchor computes the 5' unclipped alignment coordinate of
// r: for a forward-strand read this is the leftmost aligned position
// minus any leading soft clip; for a reverse-strand read this is the
// rightmost aligned position (leftmost + reference-consumed length -
// 1) plus any trailing soft clip. Reads with identical physical
// fragment starts but different trimmed alignments collide on this
// value.
func unclippedAnchor(r *sam.Record) int32 {
	if isReversed(r) {
		end := r.Pos + referenceConsumedLen(r.Cigar) - 1
		return int32(end + trailingSoftClipLen(r.Cigar))
	}
	return int32(r.Pos - leadingSoftClipLen(r.Cigar))
}

// fingerprintOf computes the fingerprint key of a mapped record. The
// caller must not call this for unmapped records (§4.1): those are
// never submitted to the in-flight tables.
func fingerprintOf(r *sam.Record, libraryID uint8) fingerprintKey {
	return fingerprintKey{
		libraryID:   libraryID,
		referenceID: int32(r.Ref.ID()),
		orient:      orientationOf(r),
		anchorPos:   unclippedAnchor(r),
	}
}
