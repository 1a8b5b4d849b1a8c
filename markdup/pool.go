package markdup

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// recordPool is a thin wrapper around sam's global record free list. It
// exists as its own type so that (a) callers have a single track/
// release vocabulary matching spec component C4, and (b) a pool
// created with debug enabled (Options.Verbose) can catch a double
// release, which is a bug per the
// engine's ownership discipline: every record in flight belongs to
// exactly one of the fragment table, the pending-mate table, the
// paired table, or is "released".
type recordPool struct {
	debug       bool
	outstanding map[*sam.Record]bool
}

func newRecordPool(debug bool) *recordPool {
	p := &recordPool{debug: debug}
	if debug {
		p.outstanding = make(map[*sam.Record]bool)
	}
	return p
}

// track registers r, just read from the input, as outstanding. Pass 1
// calls this once per record before handing it to the engine; every
// tracked record must reach exactly one release before the run ends.
func (p *recordPool) track(r *sam.Record) {
	if p.debug {
		p.outstanding[r] = true
	}
}

// release returns r to the free list. Calling release twice on the
// same handle without an intervening track is a bug.
func (p *recordPool) release(r *sam.Record) {
	if p.debug {
		if !p.outstanding[r] {
			log.Fatalf("recordPool: double release of %p (%s)", r, r.Name)
		}
		delete(p.outstanding, r)
	}
	sam.PutInFreePool(r)
}
