package markdup

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/guptarohit/asciigraph"
)

// libraryMetrics accumulates the per-library duplication summary
// (spec component A4). The field names mirror the columns a
// duplicate-marking log conventionally reports, so a downstream
// pipeline consuming this log doesn't need to know this tool's
// internals.
type libraryMetrics struct {
	name string

	unpairedReadsExamined  int64
	readPairsExamined      int64 // one per pair; halved from a per-mate count in finish
	unmappedReads          int64
	unpairedReadDuplicates int64
	readPairDuplicates     int64

	estimatedLibrarySize int64
}

func (m *libraryMetrics) percentDuplication() float64 {
	examined := m.unpairedReadsExamined + m.readPairsExamined*2
	if examined == 0 {
		return 0
	}
	dups := m.unpairedReadDuplicates + m.readPairDuplicates*2
	return float64(dups) / float64(examined)
}

// Metrics is the full per-library breakdown produced by one SetupAndRun.
type Metrics struct {
	libraries *libraryResolver
	byLibrary map[uint8]*libraryMetrics
	totalDups int
}

func newMetrics(libraries *libraryResolver) *Metrics {
	return &Metrics{libraries: libraries, byLibrary: make(map[uint8]*libraryMetrics)}
}

func (m *Metrics) entry(libraryID uint8) *libraryMetrics {
	e, ok := m.byLibrary[libraryID]
	if !ok {
		e = &libraryMetrics{name: m.libraries.name(libraryID)}
		m.byLibrary[libraryID] = e
	}
	return e
}

// observe folds one input record into the library's examined counts.
// Whether it turns out to be a duplicate is decided later, in pass 1,
// and recorded separately via recordDuplicate. A true pair's two
// mates each trigger the hasMappedMate branch independently, so
// readPairsExamined is counted per mate here and halved once in
// finish, the same convention recordDuplicate uses for duplicates.
func (m *Metrics) observe(libraryID uint8, record *sam.Record) {
	e := m.entry(libraryID)
	switch {
	case isUnmapped(record):
		e.unmappedReads++
	case hasMappedMate(record):
		e.readPairsExamined++
	default:
		e.unpairedReadsExamined++
	}
}

func (m *Metrics) recordDuplicate(libraryID uint8) {
	e := m.entry(libraryID)
	// A paired duplicate is recorded once per mate by markDuplicate
	// (fragment-table collisions never fire for true pairs, and
	// paired-table collisions fire markDuplicate twice, once per
	// mate), so unpairedReadDuplicates and readPairDuplicates are both
	// counted per-mate here and halved at read time in percentDuplication.
	e.unpairedReadDuplicates++
}

// finish computes each library's Lander-Waterman library size
// estimate once all records have been observed.
func (m *Metrics) finish(totalDups int) {
	m.totalDups = totalDups
	for _, e := range m.byLibrary {
		e.readPairsExamined /= 2
		e.readPairDuplicates = e.unpairedReadDuplicates / 2
		e.unpairedReadDuplicates -= e.readPairDuplicates * 2
		e.estimatedLibrarySize = estimateLibrarySize(e.readPairsExamined, e.readPairDuplicates)
	}
}

// estimateLibrarySize applies the Lander-Waterman equation relating
// the fraction of observed duplicates to the size of the original
// molecule pool: with n pairs examined, of which m are unique, the
// library size x solves m/x = 1 - e^(-n/x), found by bisection, as a
// sequencing library's complexity is conventionally estimated from its
// pairwise duplication rate.
func estimateLibrarySize(pairsExamined, pairDuplicates int64) int64 {
	if pairsExamined == 0 || pairDuplicates >= pairsExamined {
		return 0
	}
	uniquePairs := pairsExamined - pairDuplicates
	if uniquePairs <= 0 || pairsExamined <= uniquePairs {
		return 0
	}
	m := float64(uniquePairs)
	n := float64(pairsExamined)

	// f(m) = exp(-n/m) > 0; f(x) -> (m-n)/x < 0 as x grows, so the
	// root lies between m and however far out f turns negative.
	f := func(x float64) float64 {
		return m/x - 1 + math.Exp(-n/x)
	}

	lo, hi := m, 2*m
	for i := 0; i < 100 && f(hi) > 0; i++ {
		hi *= 2
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return int64((lo + hi) / 2)
}

// writeLog writes the per-library metrics table to path. When there is
// more than one library it is followed by an ASCII line plot of the
// libraries' duplication percentages, in library-name order.
// path == "-" writes to stderr instead of a file, matching the
// default used when the output BAM path itself starts with '-'.
func (m *Metrics) writeLog(path string) error {
	w := io.Writer(os.Stderr)
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.E(err, "creating metrics log")
		}
		defer f.Close()
		w = f
	}

	names := make([]string, 0, len(m.byLibrary))
	for id := range m.byLibrary {
		names = append(names, m.libraries.name(id))
	}
	sort.Strings(names)
	byName := make(map[string]*libraryMetrics, len(m.byLibrary))
	for _, e := range m.byLibrary {
		byName[e.name] = e
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LIBRARY\tUNPAIRED_READS_EXAMINED\tREAD_PAIRS_EXAMINED\tUNMAPPED_READS\tUNPAIRED_READ_DUPLICATES\tREAD_PAIR_DUPLICATES\tPERCENT_DUPLICATION\tESTIMATED_LIBRARY_SIZE")
	rates := make([]float64, 0, len(names))
	for _, name := range names {
		e := byName[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.6f\t%d\n",
			e.name, e.unpairedReadsExamined, e.readPairsExamined, e.unmappedReads,
			e.unpairedReadDuplicates, e.readPairDuplicates, e.percentDuplication(), e.estimatedLibrarySize)
		rates = append(rates, e.percentDuplication()*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rates) > 1 {
		chart := asciigraph.Plot(rates,
			asciigraph.Height(10),
			asciigraph.Caption("per-library duplication rate (%)"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, chart)
	}
	return nil
}
