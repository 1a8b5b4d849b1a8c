package markdup

import (
	"bytes"
	"fmt"

	"github.com/grailbio/hts/sam"
)

// testHeader builds a header with a single reference and one read
// group per library name, library names in order defining RG IDs
// "rg0", "rg1", .... Read groups are added by parsing literal @RG
// header text rather than through a structured builder, since that is
// the one construction path every SAM header implementation supports.
func testHeader(libraryNames ...string) *sam.Header {
	var text bytes.Buffer
	for i, lib := range libraryNames {
		fmt.Fprintf(&text, "@RG\tID:rg%d\tLB:%s\n", i, lib)
	}
	h, err := sam.NewHeader(text.Bytes(), []*sam.Reference{mustNewReference("chr1", 1<<28)})
	if err != nil {
		panic(err)
	}
	return h
}

// testEngine builds a minimal engine suitable for exercising a single
// table in isolation, without going through SetupAndRun's file I/O.
func testEngine(header *sam.Header) *engine {
	e, err := newEngine(header, Options{MinQual: defaultMinQual}, nil)
	if err != nil {
		panic(err)
	}
	return e
}

func mustNewReference(name string, length int) *sam.Reference {
	ref, err := sam.NewReference(name, "", "", length, nil, nil)
	if err != nil {
		panic(err)
	}
	return ref
}

// testRecordOpts describes one synthetic alignment for the tests; the
// zero value is a minimal, unpaired, forward-strand, full-length
// match at pos 0 on the header's only reference.
type testRecordOpts struct {
	name         string
	rg           string
	pos          int
	reverse      bool
	qcFail       bool
	cigar        sam.Cigar
	qual         []byte
	paired       bool
	mateUnmapped bool
	unmapped     bool
	matePos      int
	ordinal      uint32
}

// newTestRecord builds a *sam.Record from opts against header, filling
// in reasonable defaults (a 50-base full match CIGAR, quality 30
// throughout) for anything opts leaves zero.
func newTestRecord(header *sam.Header, opts testRecordOpts) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = opts.name
	if r.Name == "" {
		r.Name = fmt.Sprintf("read-%d", opts.ordinal)
	}
	r.Ref = header.Refs()[0]
	r.Pos = opts.pos
	r.MateRef = r.Ref
	r.MatePos = opts.matePos

	r.Cigar = opts.cigar
	if r.Cigar == nil {
		r.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 50)}
	}
	r.Qual = opts.qual
	if r.Qual == nil {
		r.Qual = make([]byte, 50)
		for i := range r.Qual {
			r.Qual[i] = 30
		}
	}
	r.Seq = sam.NewSeq(make([]byte, len(r.Qual)))

	if opts.unmapped {
		r.Flags |= sam.Unmapped
		r.Ref = nil
	}
	if opts.reverse {
		r.Flags |= sam.Reverse
	}
	if opts.qcFail {
		r.Flags |= sam.QCFail
	}
	if opts.paired {
		r.Flags |= sam.Paired
		r.Flags |= sam.ProperPair
	}
	if opts.mateUnmapped {
		r.Flags |= sam.MateUnmapped
		r.MateRef = nil
	}
	if opts.rg != "" {
		aux, err := sam.NewAux(rgTag, opts.rg)
		if err != nil {
			panic(err)
		}
		r.AuxFields = append(r.AuxFields, aux)
	}
	return r
}
