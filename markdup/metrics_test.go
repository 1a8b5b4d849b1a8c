package markdup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateLibrarySizeNoDuplicatesIsZero(t *testing.T) {
	assert.Equal(t, int64(0), estimateLibrarySize(1000, 0))
}

func TestEstimateLibrarySizeShrinksAsDuplicationRises(t *testing.T) {
	lightlyDuplicated := estimateLibrarySize(10000, 1000)
	heavilyDuplicated := estimateLibrarySize(10000, 8000)
	assert.Greater(t, lightlyDuplicated, heavilyDuplicated, "more resampling of the same molecules implies a smaller underlying library")
}

func TestLibraryMetricsPercentDuplication(t *testing.T) {
	m := &libraryMetrics{unpairedReadsExamined: 0, readPairsExamined: 100, readPairDuplicates: 10}
	assert.InDelta(t, 0.10, m.percentDuplication(), 1e-9)
}
