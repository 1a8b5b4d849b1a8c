/*Package markdup implements streaming PCR/optical duplicate marking for
coordinate-sorted SAM/BAM alignment streams.

This package considers two mapped reads A and B duplicates of each
other if their:
  1) reference
  2) unclipped 5' position
  3) strand (orientation)
are all identical. Two read pairs are duplicates of each other if the
same holds for both their left (earlier-positioned) and right mates.

A mapped read whose mate is unmapped is a "singleton" fragment: it can
be a duplicate of another singleton, or of one read from a mapped
pair, but a mapped pair is never a duplicate of a singleton, since the
singleton has no alignment position for its missing mate.

Unlike github.com/grailbio/bio/markduplicates, which shards the input
and resolves duplicates per-shard in parallel, this package makes a
single sequential sweep over the input in coordinate order, holding
only the records whose position has not yet been passed by the input
cursor. Three tables are kept in flight:

  - the fragment table (fragmentTable), one best-so-far candidate per
    fingerprint, for singletons and not-yet-paired halves of a pair;
  - the pending-mate table (pendingMateTable), halves of a pair parked
    under their mate's expected coordinate while waiting for that mate
    to arrive;
  - the paired table (pairedTable), one best-so-far candidate per pair
    of fingerprints, once both halves of a pair are known.

Whenever the input's (reference, position) advances, the sweep
controller drains every table entry whose position has been passed:
drained fragment and paired entries are non-duplicates, delivered
downstream; drained pending-mate entries had no mate arrive in time and
are reported as missing-mate, then treated as non-duplicates too. At
EOF the controller is run once more with a sentinel position past
every reference, flushing all three tables to empty, which is the
condition SetupAndRun verifies before reporting success.

Losing records (found to be duplicates) have their ordinal — their
0-based position in the input stream — appended to a duplicate index.
After the first pass completes the index is sorted, and a second pass
re-reads the same input, setting (or, under --force, clearing) the
0x400 duplicate flag bit according to membership in the index, and
writing every record back out in its original order.

Tie-breaking is deterministic: the higher summed base quality wins; on
an exact tie, the record (or pair) appearing earlier in the input
wins. A paired candidate always beats an unpaired one at the same
fingerprint, regardless of quality — pairing is stronger evidence of a
true fragment than a single read's quality score.
*/
package markdup
