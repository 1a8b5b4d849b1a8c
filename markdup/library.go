package markdup

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

var rgTag = sam.Tag{'R', 'G'}

const unknownLibraryName = "Unknown Library"

// maxLibraries is the largest number of distinct libraries the 8-bit
// libraryID field in a fingerprintKey can represent.
const maxLibraries = 255

// libraryResolver maps a record's read-group tag to a small integer
// library id, grouping read groups that share an LB value under the
// same id. Read groups with no LB tag share a single "empty" library.
type libraryResolver struct {
	names        []string         // libraryID -> display name, names[0] is always unknownLibraryName
	readGroupLib map[string]uint8 // read-group ID -> libraryID
	warnedRG     map[string]bool  // read groups already warned about (missing/unknown RG)
}

// newLibraryResolver builds a resolver from header's read groups,
// grouping read groups with identical LB tags under a shared library
// id. Returns an error if a read-group ID is duplicated in the header,
// or if the number of distinct libraries exceeds maxLibraries.
func newLibraryResolver(header *sam.Header) (*libraryResolver, error) {
	r := &libraryResolver{
		names:        []string{unknownLibraryName},
		readGroupLib: make(map[string]uint8),
		warnedRG:     make(map[string]bool),
	}

	libraryID := make(map[string]uint8) // LB value -> libraryID
	seenRG := make(map[string]bool)

	for _, rg := range header.RGs() {
		id := rg.Name()
		if seenRG[id] {
			return nil, fmt.Errorf("duplicate read-group ID in header: %s", id)
		}
		seenRG[id] = true

		lb := rg.Library()
		if lb == "" {
			r.readGroupLib[id] = 0
			continue
		}
		libID, ok := libraryID[lb]
		if !ok {
			if len(r.names) > maxLibraries {
				return nil, fmt.Errorf("input has more than %d distinct libraries", maxLibraries)
			}
			libID = uint8(len(r.names))
			libraryID[lb] = libID
			r.names = append(r.names, lb)
		}
		r.readGroupLib[id] = libID
	}
	if len(r.names) > maxLibraries+1 {
		return nil, fmt.Errorf("input has more than %d distinct libraries", maxLibraries)
	}
	return r, nil
}

// name returns the display name of libraryID, for use in log messages
// and metrics.
func (r *libraryResolver) name(libraryID uint8) string {
	if int(libraryID) < len(r.names) {
		return r.names[libraryID]
	}
	return unknownLibraryName
}

// resolve returns the library id of record. Absence of an RG tag, or
// an RG value unknown to the header, falls back to library 0 with a
// one-time warning per distinct read-group value. A record carrying
// more than one RG tag is rejected outright.
func (r *libraryResolver) resolve(record *sam.Record) (uint8, error) {
	var rgAux sam.Aux
	found := false
	for _, aux := range record.AuxFields {
		if aux.Tag() != rgTag {
			continue
		}
		if found {
			return 0, fmt.Errorf("record %s carries more than one RG tag", record.Name)
		}
		rgAux = aux
		found = true
	}
	if !found {
		r.warnMissingRG("")
		return 0, nil
	}
	rgValue, _ := rgAux.Value().(string)
	libID, ok := r.readGroupLib[rgValue]
	if !ok {
		r.warnMissingRG(rgValue)
		return 0, nil
	}
	return libID, nil
}

func (r *libraryResolver) warnMissingRG(rgValue string) {
	if r.warnedRG[rgValue] {
		return
	}
	r.warnedRG[rgValue] = true
	if rgValue == "" {
		log.Error.Printf("record missing RG tag, assigning to %s", unknownLibraryName)
	} else {
		log.Error.Printf("record references unknown read group %q, assigning to %s", rgValue, unknownLibraryName)
	}
}
