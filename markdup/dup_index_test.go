package markdup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDupIndexSortsAndWalksInOrder(t *testing.T) {
	d := newDupIndex()
	d.add(5)
	d.add(1)
	d.add(3)
	d.finish()

	var found []uint32
	for ordinal := uint32(0); ordinal < 7; ordinal++ {
		if d.isNextDuplicate(ordinal) {
			found = append(found, ordinal)
		}
	}
	assert.Equal(t, []uint32{1, 3, 5}, found)
}

func TestDupIndexRejectsDuplicateAdd(t *testing.T) {
	d := newDupIndex()
	d.add(1)
	assert.Panics(t, func() { d.add(1) })
}

func TestDupIndexRejectsIsNextDuplicateBeforeFinish(t *testing.T) {
	d := newDupIndex()
	assert.Panics(t, func() { d.isNextDuplicate(0) })
}
