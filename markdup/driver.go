package markdup

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"

	farm "github.com/dgryski/go-farm"
)

// Options configures a single run of the duplicate-marking engine
// (spec component C10).
type Options struct {
	In  string // input BAM path
	Out string // output BAM path

	MinQual  int    // minimum per-base Phred score counted toward a record's score
	Log      string // path to write the per-library metrics log; defaults to Out+".log" (or stderr if Out starts with '-')
	OneChrom bool   // handle a paired read whose mate is on another reference as single-ended; the sweep also treats the whole input as a single reference
	RmDups   bool   // drop duplicate records from the output instead of flagging them
	Force    bool   // clear pre-existing duplicate flags instead of aborting on them
	Verbose  bool
	NoEOF    bool   // accepted for command-line compatibility; not passed to the BAM reader, so it has no effect
	Params   bool   // echo the resolved option set at startup
	Recab    string // path to a recalibration table to apply to surviving records
}

func (o Options) minQual() int {
	if o.MinQual == 0 {
		return defaultMinQual
	}
	return o.MinQual
}

// engine holds everything pass 1 needs in flight: the three candidate
// tables, the sweep controller, and the record pool, plus the
// bookkeeping (duplicate index, missing-mate warnings) that both
// passes share.
type engine struct {
	opts      Options
	libraries *libraryResolver
	pool      *recordPool

	fragments    *fragmentTable
	pendingMates *pendingMateTable
	pairs        *pairedTable
	sweep        *sweepController
	dupIndex     *dupIndex

	recab             recalibrator
	metrics           *Metrics
	missingMateWarned [2]bool // [0]=same reference, [1]=different references
	nextOrdinal       uint32
}

func newEngine(header *sam.Header, opts Options, recab recalibrator) (*engine, error) {
	libraries, err := newLibraryResolver(header)
	if err != nil {
		return nil, errors.E(err, "building library table")
	}
	e := &engine{
		opts:         opts,
		libraries:    libraries,
		pool:         newRecordPool(opts.Verbose),
		fragments:    newFragmentTable(),
		pendingMates: newPendingMateTable(),
		pairs:        newPairedTable(),
		sweep:        newSweepController(opts.OneChrom),
		dupIndex:     newDupIndex(),
		recab:        recab,
	}
	e.metrics = newMetrics(libraries)
	return e, nil
}

// markDuplicate records ordinal as a duplicate and, if record is non-
// nil, returns its handle to the pool. record is nil for fragment-
// table entries that only bookkeep a paired anchor and never held a
// handle of their own.
func (e *engine) markDuplicate(libraryID uint8, ordinal uint32, record *sam.Record) {
	e.dupIndex.add(ordinal)
	if e.metrics != nil {
		e.metrics.recordDuplicate(libraryID)
	}
	if record != nil {
		e.pool.release(record)
	}
}

// deliverNonDuplicate hands record to the recalibration hook (if
// configured) and returns its handle to the pool. Pass 1 never
// writes output; this exists purely so the hook sees every surviving
// record exactly once, in the order the engine resolved it, as spec
// component A5 requires.
func (e *engine) deliverNonDuplicate(record *sam.Record) {
	if e.recab != nil {
		e.recab.Observe(record)
	}
	e.pool.release(record)
}

func (e *engine) reportMissingMate(record *sam.Record) {
	crossChrom := record.MateRef == nil || record.Ref == nil || record.MateRef.ID() != record.Ref.ID()
	idx := 0
	if crossChrom {
		idx = 1
	}
	if e.missingMateWarned[idx] {
		return
	}
	e.missingMateWarned[idx] = true
	if crossChrom {
		log.Error.Printf("mate never observed for %s (mate reference differs); treating as non-duplicate", record.Name)
	} else {
		log.Error.Printf("mate never observed for %s on the same reference; treating as non-duplicate", record.Name)
	}
}

// classify is the per-record body of pass 1 (§4.1-§4.7): fingerprint
// the record, run the sweep, and feed it into whichever table its
// pairing status selects.
func (e *engine) classify(record *sam.Record, ordinal uint32) error {
	if isUnmapped(record) {
		e.deliverNonDuplicate(record) // emitted as-is in pass 2, never a duplicate
		return nil
	}

	libraryID, err := e.libraries.resolve(record)
	if err != nil {
		return err
	}
	key := fingerprintOf(record, libraryID)
	e.sweep.observe(key.referenceID, record.Pos, referenceConsumedLen(record.Cigar)+leadingSoftClipLen(record.Cigar)+trailingSoftClipLen(record.Cigar))
	e.advanceSweep(key.referenceID, record.Pos)

	sumQual := baseQualitySum(record, e.opts.minQual())

	// In one-chromosome mode a record whose mate lies on another
	// reference is handled as a singleton and never parked in C6.
	if !hasMappedMate(record) || (e.opts.OneChrom && record.MateRef.ID() != record.Ref.ID()) {
		e.fragments.insert(e, key, ordinal, sumQual, record, false)
		return nil
	}

	// This record is half of a true pair: its own anchor always
	// dominates a plain singleton collision, but it holds no handle
	// there since the handle belongs to the pending-mate/paired dance.
	e.fragments.insert(e, key, ordinal, sumQual, nil, true)

	selfRef, selfPos := int32(record.Ref.ID()), record.Pos
	mateRef, matePos := int32(record.MateRef.ID()), record.MatePos
	if packPos(mateRef, matePos) <= packPos(selfRef, selfPos) {
		parked := e.pendingMates.take(selfRef, selfPos, record.Name)
		if parked == nil {
			e.reportMissingMate(record)
			e.deliverNonDuplicate(record)
			return nil
		}
		pair := &pairedEntry{
			sumBaseQual:  parked.sumBaseQual + sumQual,
			leftOrdinal:  parked.ordinal,
			rightOrdinal: ordinal,
			left:         parked.record,
			right:        record,
		}
		e.pairs.insert(e, pairKey{left: parked.key, right: key}, pair)
		return nil
	}

	e.pendingMates.park(mateRef, matePos, &pendingMateEntry{
		ordinal:     ordinal,
		sumBaseQual: sumQual,
		record:      record,
		key:         key,
		nameHash:    farm.Hash64([]byte(record.Name)),
	})
	return nil
}

// SetupAndRun executes both passes of opts against a freshly opened
// input, producing the rewritten output and the metrics log at
// opts.Log (which validate defaults when it is empty).
func SetupAndRun(opts Options) error {
	if err := validate(&opts); err != nil {
		return err
	}
	if opts.Params {
		logParams(opts)
	}
	recab, err := loadRecalibrator(opts.Recab)
	if err != nil {
		return err
	}

	dupIndex, metrics, err := pass1(opts, recab)
	if err != nil {
		return errors.E(err, "pass 1")
	}
	log.Debug.Printf("pass 1 complete: %d duplicates marked", dupIndex.len())

	if err := pass2(opts, dupIndex, recab); err != nil {
		return errors.E(err, "pass 2")
	}
	if err := metrics.writeLog(opts.Log); err != nil {
		return errors.E(err, "writing metrics log")
	}
	return nil
}

// logParams echoes the resolved option set to the log at startup, the
// way --params does in the original dedup tool.
func logParams(opts Options) {
	log.Printf("in=%s", opts.In)
	log.Printf("out=%s", opts.Out)
	log.Printf("minQual=%d", opts.minQual())
	log.Printf("log=%s", opts.Log)
	log.Printf("oneChrom=%t", opts.OneChrom)
	log.Printf("rmDups=%t", opts.RmDups)
	log.Printf("force=%t", opts.Force)
	log.Printf("verbose=%t", opts.Verbose)
	log.Printf("noeof=%t", opts.NoEOF)
	log.Printf("recab=%s", opts.Recab)
}

func pass1(opts Options, recab recalibrator) (*dupIndex, *Metrics, error) {
	f, err := os.Open(opts.In)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	// opts.NoEOF is not consulted: the reader is opened the same way
	// whether or not it is set.
	r, err := bam.NewReader(f, 1)
	if err != nil {
		return nil, nil, errors.E(err, "opening input for pass 1")
	}
	defer r.Close()

	e, err := newEngine(r.Header(), opts, recab)
	if err != nil {
		return nil, nil, err
	}
	metrics := e.metrics

	var ordinal uint32
	var havePrev bool
	var prevRef int32
	var prevPos int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.E(err, "reading input")
		}
		e.pool.track(record)

		if !isUnmapped(record) {
			ref, pos := int32(record.Ref.ID()), record.Pos
			if havePrev && (ref < prevRef || (ref == prevRef && pos < prevPos)) {
				return nil, nil, fmt.Errorf("input is not coordinate sorted at record %d (%s)", ordinal, record.Name)
			}
			prevRef, prevPos, havePrev = ref, pos, true
		}

		if record.Flags&sam.Duplicate != 0 {
			if !opts.Force {
				return nil, nil, fmt.Errorf("input record %d (%s) is already flagged as a duplicate; rerun with --force to clear and reprocess", ordinal, record.Name)
			}
			record.Flags &^= sam.Duplicate
		}

		libraryID, _ := e.libraries.resolve(record)
		metrics.observe(libraryID, record)

		if err := e.classify(record, ordinal); err != nil {
			return nil, nil, errors.E(err, fmt.Sprintf("classifying record %d (%s)", ordinal, record.Name))
		}
		ordinal++
		if opts.Verbose && ordinal%100000 == 0 {
			log.Printf("pass 1: %d records read", ordinal)
		}
	}
	e.drainAllTables()
	e.dupIndex.finish()
	metrics.finish(e.dupIndex.len())
	return e.dupIndex, metrics, nil
}

func pass2(opts Options, dups *dupIndex, recab recalibrator) error {
	in, err := os.Open(opts.In)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := bam.NewReader(in, 1)
	if err != nil {
		return errors.E(err, "opening input for pass 2")
	}
	defer r.Close()

	out, err := os.Create(opts.Out)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := bam.NewWriter(out, r.Header(), 1)
	if err != nil {
		return errors.E(err, "opening output")
	}
	defer w.Close()

	var ordinal uint32
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.E(err, "reading input")
		}

		isDup := dups.isNextDuplicate(ordinal)
		ordinal++

		if isDup {
			record.Flags |= sam.Duplicate
			if opts.RmDups {
				continue
			}
		} else {
			record.Flags &^= sam.Duplicate
		}

		// A duplicate that is kept (no --rmDups) is still written, so
		// it still needs recalibrated qualities.
		if recab != nil {
			recab.Apply(record)
		}

		if err := w.Write(record); err != nil {
			return errors.E(err, "writing output")
		}
	}
	return nil
}
