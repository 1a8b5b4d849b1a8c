package markdup

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// recalibrator is the hook spec component A5 describes: pass 1 shows
// it every surviving (non-duplicate) record via Observe, in the order
// the engine resolves them; pass 2 calls Apply on every surviving
// record before it is written. The engine itself never interprets
// base qualities beyond the tie-break score in quality.go; any
// adjustment to the qualities that reach the output is this hook's
// responsibility.
type recalibrator interface {
	Observe(record *sam.Record)
	Apply(record *sam.Record)
}

// tableRecalibrator applies a flat per-Phred-score delta, read from a
// simple two-column table ("fromQual,delta" per line). It does not
// use Observe: the table is fixed at load time rather than fit from
// the data, which keeps pass 1 a pure classification pass.
type tableRecalibrator struct {
	delta [256]int8
}

func loadRecalibrator(path string) (recalibrator, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "opening recalibration table")
	}
	defer f.Close()

	t := &tableRecalibrator{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("recalibration table %s line %d: expected 2 fields, got %d", path, lineNo, len(fields))
		}
		fromQual, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || fromQual < 0 || fromQual > 255 {
			return nil, fmt.Errorf("recalibration table %s line %d: invalid quality %q", path, lineNo, fields[0])
		}
		delta, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("recalibration table %s line %d: invalid delta %q", path, lineNo, fields[1])
		}
		t.delta[fromQual] = int8(delta)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading recalibration table")
	}
	return t, nil
}

func (t *tableRecalibrator) Observe(*sam.Record) {}

// Apply adjusts every base quality in record by the table's delta for
// that quality, clamped to [0, 93] (the Phred+33 printable range).
func (t *tableRecalibrator) Apply(record *sam.Record) {
	for i, q := range record.Qual {
		if q == missingQual {
			continue
		}
		adjusted := int(q) + int(t.delta[q])
		if adjusted < 0 {
			adjusted = 0
		}
		if adjusted > 93 {
			adjusted = 93
		}
		record.Qual[i] = byte(adjusted)
	}
}
