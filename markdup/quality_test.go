package markdup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseQualitySumFiltersBelowMinimum(t *testing.T) {
	h := testHeader("lib1")
	r := newTestRecord(h, testRecordOpts{qual: []byte{10, 20, 30}})
	assert.Equal(t, 50, baseQualitySum(r, 15)) // only 20 and 30 count
}

func TestBaseQualitySumMissingIsZero(t *testing.T) {
	h := testHeader("lib1")
	r := newTestRecord(h, testRecordOpts{qual: []byte{missingQual, missingQual}})
	assert.Equal(t, 0, baseQualitySum(r, 0))

	r2 := newTestRecord(h, testRecordOpts{qual: []byte{}})
	assert.Equal(t, 0, baseQualitySum(r2, 0))
}

func TestBaseQualitySumQCFailedIsNegative(t *testing.T) {
	h := testHeader("lib1")
	r := newTestRecord(h, testRecordOpts{qual: []byte{30, 30}, qcFail: true})
	assert.Equal(t, -60, baseQualitySum(r, 0))
}
