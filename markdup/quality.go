package markdup

import "github.com/grailbio/hts/sam"

// defaultMinQual is the minimum per-base Phred score, inclusive, that
// contributes to a record's tie-break score.
const defaultMinQual = 15

// missingQual is the sentinel byte the binary codec uses for every
// base of a record whose quality string was "*" in text form.
const missingQual = 0xff

// baseQualitySum sums record's per-base Phred scores that are >=
// minQual. A record with no quality information (Qual empty, or every
// byte the missing-quality sentinel) scores zero.
func baseQualitySum(record *sam.Record, minQual int) int {
	if len(record.Qual) == 0 {
		return 0
	}
	sum := 0
	missing := true
	for _, q := range record.Qual {
		if q != missingQual {
			missing = false
		}
		if int(q) >= minQual {
			sum += int(q)
		}
	}
	if missing {
		return 0
	}
	if isQCFailed(record) {
		// A QC-failed read must never outscore a passing read,
		// regardless of its raw base qualities.
		return -sum
	}
	return sum
}

func isQCFailed(record *sam.Record) bool {
	return record.Flags&sam.QCFail != 0
}
