package strategy

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const (
	minSizePowerOf2 = 12
	depthMask       = (1 << 6) - 1
)

// 16 bytes (entrySize)
type TableEntry struct {
	key          uint64
	score        int8
	flagAndDepth uint8
	_            [6]byte
}

func (t TableEntry) flag() uint8 {
	return t.flagAndDepth >> 6
}

func (t TableEntry) depth() uint8 {
	return t.flagAndDepth & depthMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func newEntry(score int8, flag uint8, depth int) TableEntry {
	return TableEntry{
		score:        score,
		flagAndDepth: flag<<6 | uint8(min(depth, depthMask)),
	}
}

type TableStats struct {
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
}

// TranspositionTable memoizes negamax values for one search. It is owned
// by a single searcher and is not safe for concurrent use; parallel
// searches give every worker its own table.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created uint64
	lookups uint64
	hits    uint64
	// "type 2" collisions: two positions that land in the same slot.
	t2collisions uint64
}

func (t *TranspositionTable) lookup(zval uint64) TableEntry {
	t.lookups++
	idx := zval & t.sizeMask
	if t.table[idx].key != zval {
		if t.table[idx].valid() {
			t.t2collisions++
		}
		return TableEntry{}
	}
	t.hits++
	return t.table[idx]
}

func (t *TranspositionTable) store(zval uint64, tentry TableEntry) {
	tentry.key = zval
	// just overwrite whatever is there.
	t.table[zval&t.sizeMask] = tentry
	t.created++
}

// Reset sizes the table to the largest power of two that fits in the
// given fraction of system memory, between 2^12 and 2^maxPower entries,
// and clears it.
func (t *TranspositionTable) Reset(fractionOfMemory float64, maxPower int) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	power := minSizePowerOf2
	if desiredNElems >= 1 {
		power = int(math.Log2(desiredNElems))
	}
	power = max(minSizePowerOf2, min(power, maxPower))

	numElems := 1 << power
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.sizePowerOf2 = power
	t.sizeMask = uint64(numElems - 1)

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created = 0
	t.lookups = 0
	t.hits = 0
	t.t2collisions = 0
}

func (t *TranspositionTable) Size() int {
	return len(t.table)
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:      t.created,
		Lookups:      t.lookups,
		Hits:         t.hits,
		T2Collisions: t.t2collisions,
	}
}
