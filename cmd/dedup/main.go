package main

/*
  dedup marks and optionally removes PCR and optical duplicates from a
  coordinate-sorted BAM file. For more information, see
  github.com/nanuq-bio/dedup/markdup/doc.go
*/

import (
	"flag"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/nanuq-bio/dedup/markdup"
)

var (
	in       = flag.String("in", "", "Input BAM filename, coordinate sorted")
	out      = flag.String("out", "", "Output BAM filename")
	minQual  = flag.Int("minQual", 15, "minimum per-base Phred score counted toward a record's tie-break score")
	logFile  = flag.String("log", "", "path to write the per-library duplication metrics log")
	oneChrom = flag.Bool("oneChrom", false, "treat a paired read whose mate is on another reference as single-ended; the sweep also treats the whole input as a single reference")
	rmDups   = flag.Bool("rmDups", false, "remove duplicate records from the output instead of flagging them")
	force    = flag.Bool("force", false, "clear pre-existing duplicate flags instead of aborting when the input already carries them")
	verbose  = flag.Bool("verbose", false, "log pass 1 progress every 100,000 records and enable extra internal consistency checks, at a memory and time cost")
	noeof    = flag.Bool("noeof", false, "accepted for compatibility; has no effect on how the input is read")
	params   = flag.Bool("params", false, "print the parameter settings")
	recab    = flag.String("recab", "", "path to a recalibration table to apply to surviving records")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		a := flag.Args()
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(a[len(a)-flag.NArg():], " "))
	}

	opts := markdup.Options{
		In:       *in,
		Out:      *out,
		MinQual:  *minQual,
		Log:      *logFile,
		OneChrom: *oneChrom,
		RmDups:   *rmDups,
		Force:    *force,
		Verbose:  *verbose,
		NoEOF:    *noeof,
		Params:   *params,
		Recab:    *recab,
	}

	if err := markdup.SetupAndRun(opts); err != nil {
		log.Fatalf(err.Error())
	}
	log.Debug.Printf("exiting")
}
