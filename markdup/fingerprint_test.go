package markdup

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
)

func TestUnclippedAnchorForwardStripsLeadingClip(t *testing.T) {
	h := testHeader("lib1")
	r := newTestRecord(h, testRecordOpts{
		pos:   100,
		cigar: sam.Cigar{sam.NewCigarOp(sam.CigarSoftClipped, 10), sam.NewCigarOp(sam.CigarMatch, 40)},
	})
	assert.Equal(t, int32(90), unclippedAnchor(r))
}

func TestUnclippedAnchorReverseExtendsByTrailingClip(t *testing.T) {
	h := testHeader("lib1")
	r := newTestRecord(h, testRecordOpts{
		pos:     100,
		reverse: true,
		cigar:   sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 40), sam.NewCigarOp(sam.CigarSoftClipped, 10)},
	})
	// alignment spans [100,139], trailing clip of 10 extends the anchor to 149.
	assert.Equal(t, int32(149), unclippedAnchor(r))
}

func TestFingerprintKeyOrdering(t *testing.T) {
	a := fingerprintKey{libraryID: 0, referenceID: 0, orient: orientForward, anchorPos: 100}
	b := fingerprintKey{libraryID: 0, referenceID: 0, orient: orientForward, anchorPos: 200}
	assert.True(t, a.less(b))
	assert.False(t, b.less(a))

	unmapped := fingerprintKey{libraryID: 0, referenceID: -1, anchorPos: minInt32}
	assert.True(t, b.less(unmapped))
}

func TestFingerprintDistinguishesOrientation(t *testing.T) {
	h := testHeader("lib1")
	fwd := newTestRecord(h, testRecordOpts{pos: 100})
	rev := newTestRecord(h, testRecordOpts{pos: 100, reverse: true})
	assert.NotEqual(t, fingerprintOf(fwd, 0), fingerprintOf(rev, 0))
}
